package controllers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/andresvl/aulaviva/app/models"
)

func TestTransferSLA(t *testing.T) {
	models.UpdateSettingCache(models.SettingTransferSLAHours, "")
	assert.Equal(t, time.Duration(defaultTransferSLAHours)*time.Hour, transferSLA())

	models.UpdateSettingCache(models.SettingTransferSLAHours, "72")
	assert.Equal(t, 72*time.Hour, transferSLA())

	// Garbage values fall back to the default.
	models.UpdateSettingCache(models.SettingTransferSLAHours, "pronto")
	assert.Equal(t, time.Duration(defaultTransferSLAHours)*time.Hour, transferSLA())

	models.UpdateSettingCache(models.SettingTransferSLAHours, "")
}
