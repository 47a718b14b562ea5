package httpapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dmitrijs2005/clipvault/internal/server/pipeline"
)

type uploadRequest struct {
	OwnerID   string `json:"owner_id"`
	SourceURL string `json:"source_url"`
	Name      string `json:"name"`
	Folder    string `json:"folder"`
}

type uploadResponse struct {
	URL string `json:"url"`
}

type fileResponse struct {
	Name      string    `json:"name"`
	Folder    string    `json:"folder"`
	Title     string    `json:"title,omitempty"`
	URL       string    `json:"url"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type listResponse struct {
	Files []fileResponse `json:"files"`
}

type quotaRequest struct {
	Limit *uint `json:"limit"`
}

type folderRequest struct {
	Folder string `json:"folder"`
}

type usageResponse struct {
	Count int `json:"count"`
	Limit int `json:"limit"`
}

type reconcileResponse struct {
	Resumed  int `json:"resumed"`
	Expired  int `json:"expired"`
	Orphans  int `json:"orphans"`
	Dangling int `json:"dangling"`
	Failed   int `json:"failed"`
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) submitUpload(c echo.Context) error {
	var req uploadRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "malformed request body")
	}
	if req.SourceURL == "" || req.Name == "" {
		return badRequest(c, "source_url and name are required")
	}

	caps := capsFrom(c)
	url, err := s.uploads.Submit(c.Request().Context(), caps, pipeline.Request{
		OwnerID:     req.OwnerID,
		SourceURL:   req.SourceURL,
		LogicalName: req.Name,
		Folder:      req.Folder,
	})
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, uploadResponse{URL: url})
}

func (s *Server) listFiles(c echo.Context) error {
	views, err := s.files.List(c.Request().Context(), capsFrom(c), c.Param("owner"))
	if err != nil {
		return s.fail(c, err)
	}

	out := listResponse{Files: make([]fileResponse, 0, len(views))}
	for _, v := range views {
		out.Files = append(out.Files, fileResponse{
			Name:      v.LogicalName,
			Folder:    v.FolderName,
			Title:     v.Title,
			URL:       v.PublicURL,
			SizeBytes: v.SizeBytes,
			CreatedAt: v.CreatedAt,
			ExpiresAt: v.ExpiresAt,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) deleteFile(c echo.Context) error {
	err := s.files.Delete(c.Request().Context(), capsFrom(c), c.Param("owner"), c.Param("name"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) usage(c echo.Context) error {
	u, err := s.admin.Usage(c.Request().Context(), capsFrom(c), c.Param("owner"))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, usageResponse{Count: u.Count, Limit: u.Limit})
}

func (s *Server) setQuota(c echo.Context) error {
	var req quotaRequest
	if err := c.Bind(&req); err != nil || req.Limit == nil {
		return badRequest(c, "limit must be a non-negative integer")
	}
	if err := s.admin.SetQuota(c.Request().Context(), capsFrom(c), c.Param("owner"), *req.Limit); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) setFolder(c echo.Context) error {
	var req folderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "malformed request body")
	}
	if err := s.admin.SetFolder(c.Request().Context(), capsFrom(c), c.Param("owner"), req.Folder); err != nil {
		return s.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) reconcile(c echo.Context) error {
	rep, err := s.admin.Reconcile(c.Request().Context(), capsFrom(c))
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, reconcileResponse{
		Resumed: rep.Resumed, Expired: rep.Expired, Orphans: rep.Orphans,
		Dangling: rep.Dangling, Failed: rep.Failed,
	})
}
