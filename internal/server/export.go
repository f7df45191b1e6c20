package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	exportdomain "github.com/smallbiznis/flowdesk/internal/export/domain"
)

func (s *Server) StartExport(c *gin.Context) {
	id, ok := invoiceIDParam(c)
	if !ok {
		return
	}

	job, err := s.exports.Start(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"data": job})
}

func (s *Server) GetActiveExport(c *gin.Context) {
	job, ok := s.exports.Active()
	if !ok {
		AbortWithError(c, ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": job})
}

func (s *Server) GetExport(c *gin.Context) {
	job, err := s.exports.Get(strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": job})
}

// StreamExport pushes every state of an export as server-sent events until
// the export is Complete or Error.
func (s *Server) StreamExport(c *gin.Context) {
	jobID := strings.TrimSpace(c.Param("id"))
	states, err := s.exports.Watch(jobID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	writer := c.Writer
	headers := writer.Header()
	headers.Set("Content-Type", "text/event-stream")
	headers.Set("Cache-Control", "no-cache")
	headers.Set("Connection", "keep-alive")
	headers.Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	flusher, ok := writer.(http.Flusher)
	if !ok {
		AbortWithError(c, ErrServiceUnavailable)
		return
	}

	if _, err := io.WriteString(writer, "retry: 2000\n\n"); err != nil {
		return
	}
	flusher.Flush()

	ctx := c.Request.Context()
	heartbeat := time.NewTicker(15 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case job, open := <-states:
			if !open {
				return
			}
			if err := writeExportEvent(writer, job); err != nil {
				return
			}
			flusher.Flush()
		case <-heartbeat.C:
			if _, err := io.WriteString(writer, ": heartbeat\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func writeExportEvent(w io.Writer, job exportdomain.Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", strings.ToLower(string(job.Status)), data)
	return err
}
