package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"jobverse/internal/api/middleware"
	"jobverse/internal/company"
	"jobverse/internal/storage"
)

// PrefixRemover 按前缀批量删除对象。
type PrefixRemover interface {
	DeletePrefix(ctx context.Context, prefix string) error
}

// CompanyHandler 处理公司注册、查询、更新与删除，全部要求招聘方身份。
type CompanyHandler struct {
	companies *company.Service
	uploader  *storage.Uploader
	objects   PrefixRemover
	present   presenter
}

// NewCompanyHandler objects 可为 nil，此时删除公司不清理 logo 目录。
func NewCompanyHandler(companies *company.Service, uploader *storage.Uploader, objects PrefixRemover, present presenter) *CompanyHandler {
	return &CompanyHandler{
		companies: companies,
		uploader:  uploader,
		objects:   objects,
		present:   present,
	}
}

func logoPrefix(companyID uint) string {
	return fmt.Sprintf("logos/%d/", companyID)
}

type registerCompanyRequest struct {
	CompanyName string `form:"companyName" json:"companyName"`
}

func (h *CompanyHandler) Register(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		RespondError(c, err)
		return
	}

	var req registerCompanyRequest
	if err := c.ShouldBind(&req); err != nil {
		RespondError(c, bindError(err))
		return
	}

	ctx := c.Request.Context()
	created, err := h.companies.Register(ctx, session.UserID, req.CompanyName)
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, http.StatusCreated, "Company registered successfully.", gin.H{
		"company": h.present.company(ctx, created),
	})
}

// List 返回调用者名下的公司。
func (h *CompanyHandler) List(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		RespondError(c, err)
		return
	}

	ctx := c.Request.Context()
	list, err := h.companies.ListByOwner(ctx, session.UserID)
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, http.StatusOK, "", gin.H{
		"companies": h.present.companies(ctx, list),
	})
}

func (h *CompanyHandler) Get(c *gin.Context) {
	id, err := pathID(c, company.ErrNotFound)
	if err != nil {
		RespondError(c, err)
		return
	}

	ctx := c.Request.Context()
	found, err := h.companies.Get(ctx, id)
	if err != nil {
		RespondError(c, err)
		return
	}

	Success(c, http.StatusOK, "", gin.H{
		"company": h.present.company(ctx, found),
	})
}

type updateCompanyRequest struct {
	Name        string `form:"name" json:"name"`
	Description string `form:"description" json:"description"`
	Website     string `form:"website" json:"website"`
	Location    string `form:"location" json:"location"`
}

// Update 接受 JSON 或 multipart，multipart 中的 file 为新的 logo。
func (h *CompanyHandler) Update(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	id, err := pathID(c, company.ErrNotFound)
	if err != nil {
		RespondError(c, err)
		return
	}

	var req updateCompanyRequest
	if err := bindPartial(c, &req); err != nil {
		RespondError(c, err)
		return
	}

	ctx := c.Request.Context()
	upd := company.Update{
		Name:        req.Name,
		Description: req.Description,
		Website:     req.Website,
		Location:    req.Location,
	}
	if file := formFile(c, "file"); file != nil {
		key, err := h.uploader.Put(ctx, logoPrefix(id), file)
		if err != nil {
			RespondError(c, err)
			return
		}
		upd.LogoKey = key
	}

	updated, replaced, err := h.companies.Update(ctx, session.UserID, id, upd)
	if err != nil {
		removeObjects(c, h.uploader, upd.LogoKey)
		RespondError(c, err)
		return
	}
	removeObjects(c, h.uploader, replaced)

	Success(c, http.StatusOK, "Company updated successfully.", gin.H{
		"company": h.present.company(ctx, updated),
	})
}

// Delete 级联删除公司下的职位与投递，随后尽力清理 logo 目录。
func (h *CompanyHandler) Delete(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		RespondError(c, err)
		return
	}
	id, err := pathID(c, company.ErrNotFound)
	if err != nil {
		RespondError(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.companies.Delete(ctx, session.UserID, id); err != nil {
		RespondError(c, err)
		return
	}

	if h.objects != nil {
		if err := h.objects.DeletePrefix(ctx, logoPrefix(id)); err != nil {
			middleware.LoggerFromContext(c).Warn("delete company logos failed",
				slog.Uint64("company_id", uint64(id)),
				slog.Any("error", err),
			)
		}
	}

	Success(c, http.StatusOK, "Company and all associated jobs deleted successfully.", nil)
}
