package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"jobverse/internal/job"
)

// JobHandler 处理职位发布与查询；列表和详情对匿名用户开放。
type JobHandler struct {
	jobs    *job.Service
	present presenter
}

func NewJobHandler(jobs *job.Service, present presenter) *JobHandler {
	return &JobHandler{jobs: jobs, present: present}
}

func (h *JobHandler) Post(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		RespondError(c, err)
		return
	}

	var draft job.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		RespondError(c, bindError(err))
		return
	}

	ctx := c.Request.Context()
	posted, err := h.jobs.Post(ctx, session.UserID, draft)
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, http.StatusCreated, "New job created successfully.", gin.H{
		"job": h.present.job(ctx, posted),
	})
}

// List 支持 ?keyword= 或 ?role=&location=&salaryMin=&salaryMax=，keyword 优先。
func (h *JobHandler) List(c *gin.Context) {
	query, err := job.ParseQuery(
		c.Query("keyword"),
		c.Query("role"),
		c.Query("location"),
		c.Query("salaryMin"),
		c.Query("salaryMax"),
	)
	if err != nil {
		RespondError(c, err)
		return
	}

	ctx := c.Request.Context()
	jobs, err := h.jobs.List(ctx, query)
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, http.StatusOK, "", gin.H{
		"jobs": h.present.jobs(ctx, jobs),
	})
}

func (h *JobHandler) Get(c *gin.Context) {
	id, err := pathID(c, job.ErrNotFound)
	if err != nil {
		RespondError(c, err)
		return
	}

	ctx := c.Request.Context()
	found, err := h.jobs.Get(ctx, id)
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, http.StatusOK, "", gin.H{
		"job": h.present.job(ctx, found),
	})
}

// ListMine 返回调用者发布的职位。
func (h *JobHandler) ListMine(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		RespondError(c, err)
		return
	}

	ctx := c.Request.Context()
	jobs, err := h.jobs.ListByCreator(ctx, session.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, http.StatusOK, "", gin.H{
		"jobs": h.present.jobs(ctx, jobs),
	})
}

func (h *JobHandler) Update(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	id, err := pathID(c, job.ErrNotFound)
	if err != nil {
		RespondError(c, err)
		return
	}

	var draft job.Draft
	if err := c.ShouldBindJSON(&draft); err != nil {
		RespondError(c, bindError(err))
		return
	}

	ctx := c.Request.Context()
	updated, err := h.jobs.Update(ctx, session.UserID, id, draft)
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, http.StatusOK, "Job updated successfully.", gin.H{
		"job": h.present.job(ctx, updated),
	})
}

func (h *JobHandler) Delete(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	id, err := pathID(c, job.ErrNotFound)
	if err != nil {
		RespondError(c, err)
		return
	}

	if err := h.jobs.Delete(c.Request.Context(), session.UserID, id); err != nil {
		RespondError(c, err)
		return
	}

	Success(c, http.StatusOK, "Job deleted successfully.", nil)
}
