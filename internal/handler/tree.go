package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/CageChen/codehub/internal/tree"
	"github.com/CageChen/codehub/internal/workspace"
)

// TreeHandler handles file tree API requests
type TreeHandler struct {
	ws *workspace.Controller
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(ws *workspace.Controller) *TreeHandler {
	return &TreeHandler{ws: ws}
}

// GetTree returns the current tree. With order=display every level is
// sorted folders first with numeric-aware names; otherwise nodes come in
// insertion order.
func (h *TreeHandler) GetTree(c *gin.Context) {
	t := h.ws.Tree()
	if c.Query("order") == "display" {
		t = displayOrder(t)
	}
	if t == nil {
		t = tree.Tree{}
	}
	c.JSON(http.StatusOK, gin.H{
		"children": t,
		"count":    tree.Count(t),
	})
}

// displayOrder returns a sorted copy of nodes. The snapshot is not touched.
func displayOrder(nodes []*tree.Node) []*tree.Node {
	sorted := tree.SortForDisplay(nodes)
	for i, n := range sorted {
		if n.IsFolder() {
			cp := *n
			cp.Children = displayOrder(n.Children)
			sorted[i] = &cp
		}
	}
	return sorted
}

// CreateNodeRequest represents a request to create a file or folder
type CreateNodeRequest struct {
	Name       string    `json:"name"`
	Kind       tree.Kind `json:"kind" binding:"required"`
	ParentPath string    `json:"parentPath"`
	// Selected is the path selected in the explorer; used to pick the
	// parent when ParentPath is empty.
	Selected string `json:"selected"`
	Policy   string `json:"policy"`
}

// CreateNode creates a file or folder
func (h *TreeHandler) CreateNode(c *gin.Context) {
	var req CreateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind is required"})
		return
	}
	policy, err := workspace.ParsePolicy(req.Policy)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	parent := req.ParentPath
	if parent == "" && req.Selected != "" {
		parent = h.ws.TargetDirectory(req.Selected)
	}

	var node *tree.Node
	if req.Name == "" {
		node, err = h.ws.CreateDefault(c.Request.Context(), req.Kind, parent, policy)
	} else {
		node, err = h.ws.Create(c.Request.Context(), req.Name, req.Kind, parent, policy)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, node)
}

// RenameNodeRequest represents a request to rename a node
type RenameNodeRequest struct {
	Path    string `json:"path" binding:"required"`
	NewName string `json:"newName"`
}

// RenameNode renames a file or folder
func (h *TreeHandler) RenameNode(c *gin.Context) {
	var req RenameNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}
	node, err := h.ws.Rename(c.Request.Context(), req.Path, req.NewName)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, node)
}

// DeleteNode deletes a file or folder. The client confirms with
// ?confirm=true after showing the prompt.
func (h *TreeHandler) DeleteNode(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}
	if err := h.ws.Delete(confirmed(c).Request.Context(), path); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted", "path": path})
}

// PathRequest carries a single node path
type PathRequest struct {
	Path string `json:"path" binding:"required"`
}

// ToggleNode flips a folder's expanded flag
func (h *TreeHandler) ToggleNode(c *gin.Context) {
	var req PathRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}
	h.ws.ToggleExpand(req.Path)
	c.Status(http.StatusNoContent)
}

// Refresh rebuilds the tree from the store
func (h *TreeHandler) Refresh(c *gin.Context) {
	if err := h.ws.Refresh(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": tree.Count(h.ws.Tree())})
}

// TargetDirectory reports where a create from the given selection lands
func (h *TreeHandler) TargetDirectory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"parentPath": h.ws.TargetDirectory(c.Query("selected"))})
}
