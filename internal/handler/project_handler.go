package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/sfs/internal/logic"
	"github.com/blues/sfs/internal/model"
	"github.com/gin-gonic/gin"
)

// ProjectHandler 项目处理器
type ProjectHandler struct {
	projectLogic *logic.ProjectLogic
}

// NewProjectHandler 创建项目处理器
func NewProjectHandler(projectLogic *logic.ProjectLogic) *ProjectHandler {
	return &ProjectHandler{
		projectLogic: projectLogic,
	}
}

// SubmitProject 提交项目
func (h *ProjectHandler) SubmitProject(c *gin.Context) {
	var req SubmitProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数")
		return
	}

	project := model.Project{
		Title:            req.Title,
		Description:      req.Description,
		Category:         req.Category,
		Address:          req.Address,
		SubmitterAddress: req.SubmitterAddress,
	}
	for _, collab := range req.Collaborators {
		project.Collaborators = append(project.Collaborators, model.Collaborator{
			Address:      collab.Address,
			Name:         collab.Name,
			SharePercent: collab.SharePercent,
		})
	}

	if err := h.projectLogic.SubmitProject(&project); err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "提交项目成功", project)
}

// GetProjects 获取项目列表
func (h *ProjectHandler) GetProjects(c *gin.Context) {
	projects, err := h.projectLogic.GetProjects()
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取项目列表成功", projects)
}

// GetProject 获取项目详情
func (h *ProjectHandler) GetProject(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	project, err := h.projectLogic.GetProject(id)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "获取项目详情成功", project)
}

// PingProject 协作者活跃打卡
func (h *ProjectHandler) PingProject(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	var req PingProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的请求参数")
		return
	}

	if err := h.projectLogic.Ping(id, req.Caller); err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "打卡成功", nil)
}
