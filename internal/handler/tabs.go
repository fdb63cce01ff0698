package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CageChen/codehub/internal/workspace"
)

// TabsHandler handles editor tab API requests
type TabsHandler struct {
	ws *workspace.Controller
}

// NewTabsHandler creates a new tabs handler
func NewTabsHandler(ws *workspace.Controller) *TabsHandler {
	return &TabsHandler{ws: ws}
}

// ListTabs returns the open tabs in strip order
func (h *TabsHandler) ListTabs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tabs": h.ws.Tabs()})
}

// OpenTab opens a file, or selects its tab if already open
func (h *TabsHandler) OpenTab(c *gin.Context) {
	var req PathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}
	tab, err := h.ws.Open(c.Request.Context(), req.Path)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tab)
}

// NewUntitled opens an empty tab that has no file yet
func (h *TabsHandler) NewUntitled(c *gin.Context) {
	c.JSON(http.StatusCreated, h.ws.NewUntitled())
}

// EditRequest carries a tab's full buffer
type EditRequest struct {
	Content string `json:"content"`
}

// EditTab replaces a tab's content
func (h *TabsHandler) EditTab(c *gin.Context) {
	var req EditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	tab, err := h.ws.Edit(c.Param("id"), req.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tab)
}

// SelectTab makes a tab active
func (h *TabsHandler) SelectTab(c *gin.Context) {
	if err := h.ws.Select(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MoveRequest reorders the tab strip
type MoveRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// MoveTab moves a tab to a new position
func (h *TabsHandler) MoveTab(c *gin.Context) {
	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from and to are required"})
		return
	}
	if err := h.ws.Move(req.From, req.To); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tabs": h.ws.Tabs()})
}

// CloseTab closes a tab. A dirty tab answers 409 with a prompt until the
// client retries with ?force=true or ?confirm=true.
func (h *TabsHandler) CloseTab(c *gin.Context) {
	force := c.Query("force") == "true"
	if err := h.ws.Close(confirmed(c).Request.Context(), c.Param("id"), force); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SaveTab persists a tab's content
func (h *TabsHandler) SaveTab(c *gin.Context) {
	tab, err := h.ws.Save(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tab)
}

// PreviewTab renders a tab's current buffer to HTML
func (h *TabsHandler) PreviewTab(c *gin.Context) {
	res, err := h.ws.Preview(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// PreviewCSS serves the highlighting stylesheet
func (h *TabsHandler) PreviewCSS(c *gin.Context) {
	css, err := h.ws.PreviewCSS()
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "text/css; charset=utf-8", []byte(css))
}
