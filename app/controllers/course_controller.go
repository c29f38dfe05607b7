package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/andresvl/aulaviva/app/models"
	"github.com/andresvl/aulaviva/app/repository"
	"github.com/andresvl/aulaviva/internal/pkg/usercontext"
)

func planCovers(userPlan, minPlan string) bool {
	return models.PlanRank(userPlan) >= models.PlanRank(minPlan)
}

// HandleCourseList returns the published catalog.
func HandleCourseList(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	courses, err := repository.GetGlobalRepositories().Course.GetPublished(offset, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal error", err.Error())
	}

	items := make([]fiber.Map, 0, len(courses))
	for _, course := range courses {
		items = append(items, fiber.Map{
			"id":          course.ID,
			"title":       course.Title,
			"slug":        course.Slug,
			"description": course.Description,
			"coverUrl":    course.CoverURL,
			"minPlan":     course.MinPlan,
		})
	}
	return c.JSON(fiber.Map{
		"success": true,
		"courses": items,
	})
}

// HandleCourseDetail returns one course with its lessons. Playback IDs for
// gated lessons are withheld unless the caller's plan covers the course or
// the lesson is a free preview.
func HandleCourseDetail(c *fiber.Ctx) error {
	slug := strings.TrimSpace(c.Params("slug"))
	course, err := repository.GetGlobalRepositories().Course.GetBySlug(slug)
	if err != nil {
		return billingError(c, err)
	}
	if !course.IsPublished {
		return jsonError(c, fiber.StatusNotFound, "not found", "course not published")
	}

	userCtx := usercontext.GetUserContext(c)
	covered := userCtx.IsLoggedIn && planCovers(userCtx.Plan, course.MinPlan)

	lessons := make([]fiber.Map, 0, len(course.Lessons))
	for _, lesson := range course.Lessons {
		playable := covered || lesson.FreePreview
		item := fiber.Map{
			"id":              lesson.ID,
			"title":           lesson.Title,
			"position":        lesson.Position,
			"durationSeconds": lesson.DurationSeconds,
			"freePreview":     lesson.FreePreview,
			"playable":        playable,
		}
		if playable {
			item["videoPlaybackId"] = lesson.VideoPlaybackID
		}
		lessons = append(lessons, item)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"course": fiber.Map{
			"id":          course.ID,
			"title":       course.Title,
			"slug":        course.Slug,
			"description": course.Description,
			"coverUrl":    course.CoverURL,
			"minPlan":     course.MinPlan,
			"lessons":     lessons,
		},
	})
}
