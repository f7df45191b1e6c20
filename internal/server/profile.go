package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	profiledomain "github.com/smallbiznis/flowdesk/internal/profile/domain"
)

const maxAssetBytes = 5 << 20

func (s *Server) GetProfile(c *gin.Context) {
	resp, err := s.profileSvc.Get(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SaveProfile(c *gin.Context) {
	var req profiledomain.SaveProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.profileSvc.Save(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetBankDetails(c *gin.Context) {
	resp, err := s.profileSvc.GetBankDetails(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SaveBankDetails(c *gin.Context) {
	var req profiledomain.BankDetails
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.profileSvc.SaveBankDetails(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetProfileAsset(c *gin.Context) {
	data, err := s.profileSvc.ReadAsset(c.Request.Context(), assetKindParam(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Data(http.StatusOK, http.DetectContentType(data), data)
}

// UploadProfileAsset accepts either a multipart "file" field or the raw image
// as the request body.
func (s *Server) UploadProfileAsset(c *gin.Context) {
	var reader io.Reader = c.Request.Body
	if file, err := c.FormFile("file"); err == nil {
		f, err := file.Open()
		if err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
		defer f.Close()
		reader = f
	}

	data, err := io.ReadAll(io.LimitReader(reader, maxAssetBytes+1))
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if len(data) == 0 || len(data) > maxAssetBytes {
		AbortWithError(c, newValidationError("file", "invalid_file", "file must be between 1 byte and 5 MiB"))
		return
	}

	path, err := s.profileSvc.SaveAsset(c.Request.Context(), assetKindParam(c), data)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"path": path}})
}

func (s *Server) DeleteProfileAsset(c *gin.Context) {
	if err := s.profileSvc.DeleteAsset(c.Request.Context(), assetKindParam(c)); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func assetKindParam(c *gin.Context) profiledomain.AssetKind {
	return profiledomain.AssetKind(strings.ToLower(strings.TrimSpace(c.Param("kind"))))
}
