package controllers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/focusfrenzy/capture-server/models"
	"github.com/focusfrenzy/capture-server/store"
	"github.com/focusfrenzy/capture-server/utils"
)

// CaptureController serves the upload endpoint and both read views over the
// capture store.
type CaptureController struct {
	store *store.CaptureStore
}

func NewCaptureController(st *store.CaptureStore) *CaptureController {
	return &CaptureController{store: st}
}

// Upload handles POST /capture: one multipart image plus email/ip/score
// fields. The client timestamp field is logged for diagnostics only and never
// influences the stored filename.
func (cc *CaptureController) Upload(ctx *gin.Context) {
	email := ctx.PostForm("email")
	ip := ctx.PostForm("ip")
	score := ctx.PostForm("score")
	clientTS := ctx.PostForm("timestamp")

	file, header, err := ctx.Request.FormFile("image")
	if err != nil {
		utils.Fail(ctx, http.StatusBadRequest, "No image file received")
		return
	}
	defer file.Close()

	// One byte of headroom so the store sees the overrun and rejects it.
	lr := &io.LimitedReader{R: file, N: cc.store.MaxBytes() + 1}
	image, err := io.ReadAll(lr)
	if err != nil {
		utils.Sugar.Errorf("capture upload read failed: %v", err)
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to save capture")
		return
	}

	rec, err := cc.store.Put(image, ip, score)
	switch {
	case errors.Is(err, store.ErrMissingPayload):
		utils.Fail(ctx, http.StatusBadRequest, "No image file received")
		return
	case errors.Is(err, store.ErrPayloadTooLarge):
		utils.Fail(ctx, http.StatusBadRequest, fmt.Sprintf("Image exceeds %dMB limit", cc.store.MaxBytes()/(1024*1024)))
		return
	case err != nil:
		utils.Sugar.Errorf("capture upload failed: %v", err)
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to save capture")
		return
	}

	utils.Sugar.Infow("NEW CAPTURE SAVED",
		"file", rec.Filename,
		"original_name", header.Filename,
		"email", email,
		"ip", ip,
		"score", score,
		"time", formatClientTimestamp(clientTS),
		"size_kb", rec.SizeKB,
		"path", rec.Path,
	)

	utils.OK(ctx, gin.H{
		"message":  "Capture saved successfully",
		"filename": rec.Filename,
		"path":     rec.Path,
	})
}

// Gallery handles GET /view-captures, the human-readable view.
func (cc *CaptureController) Gallery(ctx *gin.Context) {
	if !cc.store.DirExists() {
		ctx.HTML(http.StatusOK, "gallery_empty.html", nil)
		return
	}

	captures, err := cc.store.List()
	if err != nil {
		utils.Sugar.Errorf("gallery listing failed: %v", err)
		ctx.String(http.StatusInternalServerError, "Failed to list captures")
		return
	}

	newest := "None"
	if len(captures) > 0 {
		newest = captures[0].Created.Format("2006-01-02")
	}
	ctx.HTML(http.StatusOK, "gallery.html", gin.H{
		"Captures": captures,
		"Total":    len(captures),
		"Newest":   newest,
	})
}

// ListJSON handles GET /captures-json, the machine-readable view. URLs are
// built from the request's own Host header. When the capture directory has
// never been created the reply is the bare {"captures": []} shape, without
// the success/total_captures keys of the populated branch.
func (cc *CaptureController) ListJSON(ctx *gin.Context) {
	if !cc.store.DirExists() {
		ctx.JSON(http.StatusOK, gin.H{"captures": []models.Capture{}})
		return
	}

	captures, err := cc.store.List()
	if err != nil {
		utils.Sugar.Errorf("json listing failed: %v", err)
		utils.Fail(ctx, http.StatusInternalServerError, "Failed to list captures")
		return
	}

	host := ctx.Request.Host
	for i := range captures {
		captures[i].URL = fmt.Sprintf("http://%s/captures/%s", host, captures[i].Filename)
		captures[i].DownloadURL = captures[i].URL + "?download=1"
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":        true,
		"total_captures": len(captures),
		"captures":       captures,
	})
}

// formatClientTimestamp renders the client-supplied epoch-millis field for the
// operator log. The raw string comes back unchanged when it does not parse.
func formatClientTimestamp(ts string) string {
	if ts == "" {
		return "unknown"
	}
	ms, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return ts
	}
	return time.UnixMilli(ms).Format("2006-01-02 15:04:05")
}
