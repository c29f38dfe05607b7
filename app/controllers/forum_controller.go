package controllers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/andresvl/aulaviva/app/models"
	"github.com/andresvl/aulaviva/app/repository"
	"github.com/andresvl/aulaviva/internal/pkg/usercontext"
)

func forumPostJSON(post *models.ForumPost) fiber.Map {
	item := fiber.Map{
		"id":        post.ID,
		"title":     post.Title,
		"body":      post.Body,
		"likeCount": post.LikeCount,
		"isPinned":  post.IsPinned,
		"createdAt": post.CreatedAt,
	}
	if post.User != nil {
		item["author"] = fiber.Map{
			"id":   post.User.ID,
			"name": post.User.Name,
		}
	}
	return item
}

// HandleForumPostList lists threads, pinned first. Reading is open to
// everyone, including free-plan users.
func HandleForumPostList(c *fiber.Ctx) error {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	posts, err := repository.GetGlobalRepositories().Forum.ListPosts(offset, limit)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal error", err.Error())
	}

	items := make([]fiber.Map, 0, len(posts))
	for i := range posts {
		items = append(items, forumPostJSON(&posts[i]))
	}
	return c.JSON(fiber.Map{
		"success": true,
		"posts":   items,
	})
}

// HandleForumPostDetail returns a thread with its replies.
func HandleForumPostDetail(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid post id", "")
	}

	post, err := repository.GetGlobalRepositories().Forum.GetPost(uint(id))
	if err != nil {
		return billingError(c, err)
	}

	replies := make([]fiber.Map, 0, len(post.Replies))
	for _, reply := range post.Replies {
		item := fiber.Map{
			"id":        reply.ID,
			"body":      reply.Body,
			"createdAt": reply.CreatedAt,
		}
		if reply.User != nil {
			item["author"] = fiber.Map{
				"id":   reply.User.ID,
				"name": reply.User.Name,
			}
		}
		replies = append(replies, item)
	}

	body := forumPostJSON(post)
	body["replies"] = replies
	return c.JSON(fiber.Map{
		"success": true,
		"post":    body,
	})
}

// requireForumWriter checks that the caller may write to the forum: logged in
// and on a paid plan. Free-plan users read only.
func requireForumWriter(c *fiber.Ctx) (usercontext.UserContext, error) {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return userCtx, jsonError(c, fiber.StatusUnauthorized, "login required", "")
	}
	if userCtx.Plan == models.PlanGratis || userCtx.Plan == "" {
		return userCtx, jsonError(c, fiber.StatusForbidden, "a paid plan is required to post", "")
	}
	return userCtx, nil
}

type forumPostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// HandleForumPostCreate opens a new thread.
func HandleForumPostCreate(c *fiber.Ctx) error {
	userCtx, errResp := requireForumWriter(c)
	if errResp != nil {
		return errResp
	}

	var req forumPostRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body", err.Error())
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Body) == "" {
		return jsonError(c, fiber.StatusBadRequest, "title and body are required", "")
	}

	post := &models.ForumPost{
		UserID: userCtx.UserID,
		Title:  strings.TrimSpace(req.Title),
		Body:   req.Body,
	}
	if err := repository.GetGlobalRepositories().Forum.CreatePost(post); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal error", err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"post":    forumPostJSON(post),
	})
}

type forumReplyRequest struct {
	Body string `json:"body"`
}

// HandleForumReplyCreate answers an existing thread.
func HandleForumReplyCreate(c *fiber.Ctx) error {
	userCtx, errResp := requireForumWriter(c)
	if errResp != nil {
		return errResp
	}

	postID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid post id", "")
	}
	if _, err := repository.GetGlobalRepositories().Forum.GetPost(uint(postID)); err != nil {
		return billingError(c, err)
	}

	var req forumReplyRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid request body", err.Error())
	}
	if strings.TrimSpace(req.Body) == "" {
		return jsonError(c, fiber.StatusBadRequest, "body is required", "")
	}

	reply := &models.ForumReply{
		PostID: uint(postID),
		UserID: userCtx.UserID,
		Body:   req.Body,
	}
	if err := repository.GetGlobalRepositories().Forum.CreateReply(reply); err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "internal error", err.Error())
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"reply": fiber.Map{
			"id":        reply.ID,
			"postId":    reply.PostID,
			"body":      reply.Body,
			"createdAt": reply.CreatedAt,
		},
	})
}

// HandleForumPostLike bumps a thread's like counter.
func HandleForumPostLike(c *fiber.Ctx) error {
	if !usercontext.IsLoggedIn(c) {
		return jsonError(c, fiber.StatusUnauthorized, "login required", "")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid post id", "")
	}
	if err := repository.GetGlobalRepositories().Forum.LikePost(uint(id)); err != nil {
		return billingError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}
