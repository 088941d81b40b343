package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"enhancer-backend/internal/client"
	"enhancer-backend/internal/controller"
	"enhancer-backend/internal/events"
	"enhancer-backend/internal/history"
	"enhancer-backend/internal/prompt"
	"enhancer-backend/internal/utils"
	"enhancer-backend/pkg/logger"
)

// EnhanceHandler exposes the widget's operations to the browser front end.
// Streaming endpoints re-broadcast content deltas as SSE events.
type EnhanceHandler struct {
	ctrl     *controller.Controller
	renderer *history.Renderer
	bus      *events.Bus
}

func NewEnhanceHandler(ctrl *controller.Controller, renderer *history.Renderer, bus *events.Bus) *EnhanceHandler {
	return &EnhanceHandler{
		ctrl:     ctrl,
		renderer: renderer,
		bus:      bus,
	}
}

type runActionRequest struct {
	Action string `json:"action" binding:"required"`
	Text   string `json:"text" binding:"required"`
}

type chatRequest struct {
	Message     string `json:"message" binding:"required"`
	ImageURL    string `json:"image_url"`
	ImageBase64 []byte `json:"image_base64"`
	ImageMIME   string `json:"image_mime"`
}

type useRequest struct {
	Insert bool `json:"insert"`
}

// RunAction streams one rewrite action. SSE events: "delta" per chunk, then
// "complete" with the finalized entry, or "error".
func (h *EnhanceHandler) RunAction(c *gin.Context) {
	var req runActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sse := utils.NewSSEWriter(c.Writer)
	entry, err := h.ctrl.RunAction(c.Request.Context(), prompt.Action(req.Action), req.Text, func(delta string) {
		h.writeDelta(sse, delta)
	})
	h.finishStream(sse, entry, err)
}

// Chat streams one conversation turn, optionally with an attached image.
func (h *EnhanceHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var img *client.Image
	if len(req.ImageBase64) > 0 || req.ImageURL != "" {
		img = &client.Image{
			Data: req.ImageBase64,
			MIME: req.ImageMIME,
			URL:  req.ImageURL,
		}
	}

	sse := utils.NewSSEWriter(c.Writer)
	entry, err := h.ctrl.Chat(c.Request.Context(), req.Message, img, func(delta string) {
		h.writeDelta(sse, delta)
	})
	h.finishStream(sse, entry, err)
}

// Retry re-runs the request behind an existing response as a new stream.
func (h *EnhanceHandler) Retry(c *gin.Context) {
	id := c.Param("response_id")

	sse := utils.NewSSEWriter(c.Writer)
	entry, err := h.ctrl.Retry(c.Request.Context(), id, func(delta string) {
		h.writeDelta(sse, delta)
	})
	h.finishStream(sse, entry, err)
}

func (h *EnhanceHandler) writeDelta(sse *utils.SSEWriter, delta string) {
	data, err := json.Marshal(gin.H{"content": delta})
	if err != nil {
		return
	}
	if err := sse.Write("delta", string(data)); err != nil {
		logger.Warnf("handler: SSE delta write failed: %v", err)
	}
}

// finishStream terminates a stream response. Failures still produced a
// visible error entry, so the error event carries it alongside the message.
func (h *EnhanceHandler) finishStream(sse *utils.SSEWriter, entry *history.Entry, err error) {
	if err != nil {
		payload := gin.H{"error": err.Error()}
		if entry != nil {
			payload["entry"] = entry
		}
		data, _ := json.Marshal(payload)
		sse.Write("error", string(data))
		sse.Close()
		return
	}

	data, marshalErr := json.Marshal(entry)
	if marshalErr != nil {
		logger.Errorf("handler: marshal entry failed: %v", marshalErr)
	} else {
		sse.Write("complete", string(data))
	}
	sse.Close()
}

func (h *EnhanceHandler) ListResponses(c *gin.Context) {
	entries, err := h.renderer.Entries()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"responses": entries})
}

func (h *EnhanceHandler) ClearResponses(c *gin.Context) {
	if err := h.renderer.Clear(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "History cleared"})
}

// Use writes a finalized response into the bound editor.
func (h *EnhanceHandler) Use(c *gin.Context) {
	id := c.Param("response_id")

	var req useRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// Empty body means replace mode.
		req.Insert = false
	}

	if err := h.ctrl.Use(c.Request.Context(), id, req.Insert); err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, history.ErrEntryNotFound):
			status = http.StatusNotFound
		case errors.Is(err, controller.ErrNotFinalized):
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Content applied"})
}

// Copy returns the raw response text for the clipboard.
func (h *EnhanceHandler) Copy(c *gin.Context) {
	id := c.Param("response_id")

	content, err := h.ctrl.Copy(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": content})
}

// NewConversation resets the chat exchange, re-arming the first-turn
// context latch.
func (h *EnhanceHandler) NewConversation(c *gin.Context) {
	h.ctrl.StartConversation(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"message": "Conversation started"})
}

// Events streams widget notifications (content-generated, responseUse,
// responseCopy, responseRetry, toolaction) to the host page, with
// heartbeats so idle connections stay open.
func (h *EnhanceHandler) Events(c *gin.Context) {
	sse := utils.NewSSEWriter(c.Writer)

	ch, cancel := h.bus.Subscribe(32)
	defer cancel()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if err := sse.Write(string(ev.Type), string(data)); err != nil {
				return
			}
		case <-heartbeat.C:
			if err := sse.Heartbeat(); err != nil {
				return
			}
		case <-c.Request.Context().Done():
			return
		}
	}
}
