package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/quasiuslikecautious/lockrs-sub000/internal/middleware"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/models"
	"github.com/quasiuslikecautious/lockrs-sub000/internal/services"

	"github.com/gin-gonic/gin"
)

// ClientHandler exposes the client registry to signed-in users. Every route
// is scoped to clients the caller owns.
type ClientHandler struct {
	clients *services.ClientService
}

func NewClientHandler(cs *services.ClientService) *ClientHandler {
	return &ClientHandler{clients: cs}
}

type redirectURIView struct {
	ID  uint   `json:"id"`
	URI string `json:"uri"`
}

type clientView struct {
	ID           string            `json:"client_id"`
	ClientSecret string            `json:"client_secret,omitempty"`
	Name         string            `json:"name"`
	Description  string            `json:"description,omitempty"`
	HomepageURL  string            `json:"homepage_url,omitempty"`
	IsPublic     bool              `json:"is_public"`
	RedirectURIs []redirectURIView `json:"redirect_uris"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

func toClientView(client *models.Client) clientView {
	v := clientView{
		ID:           client.ID,
		Name:         client.Name,
		Description:  client.Description,
		HomepageURL:  client.HomepageURL,
		IsPublic:     client.IsPublic,
		RedirectURIs: make([]redirectURIView, 0, len(client.RedirectURIs)),
		CreatedAt:    client.CreatedAt,
		UpdatedAt:    client.UpdatedAt,
	}
	for _, u := range client.RedirectURIs {
		v.RedirectURIs = append(v.RedirectURIs, redirectURIView{ID: u.ID, URI: u.URI})
	}
	return v
}

type registerClientRequest struct {
	Name         string   `json:"name"          binding:"required"`
	Description  string   `json:"description"`
	HomepageURL  string   `json:"homepage_url"`
	IsPublic     bool     `json:"is_public"`
	RedirectURIs []string `json:"redirect_uris" binding:"required,min=1"`
}

// Register creates a client. The secret of a confidential client appears in
// this response only.
//
//	POST /api/clients
func (h *ClientHandler) Register(c *gin.Context) {
	var req registerClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name and at least one redirect_uri are required")
		return
	}

	client, secret, err := h.clients.Register(c.Request.Context(), services.RegisterClientRequest{
		UserID:       middleware.UserID(c),
		Name:         req.Name,
		Description:  req.Description,
		HomepageURL:  req.HomepageURL,
		IsPublic:     req.IsPublic,
		RedirectURIs: req.RedirectURIs,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	view := toClientView(client)
	view.ClientSecret = secret
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusCreated, view)
}

// List returns the caller's clients.
//
//	GET /api/clients
func (h *ClientHandler) List(c *gin.Context) {
	clients, err := h.clients.List(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]clientView, 0, len(clients))
	for i := range clients {
		views = append(views, toClientView(&clients[i]))
	}
	c.JSON(http.StatusOK, gin.H{"clients": views})
}

// Get returns one client.
//
//	GET /api/clients/:id
func (h *ClientHandler) Get(c *gin.Context) {
	client, err := h.clients.GetOwned(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toClientView(client))
}

type updateClientRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	HomepageURL string `json:"homepage_url"`
}

// Update changes a client's descriptive fields.
//
//	PUT /api/clients/:id
func (h *ClientHandler) Update(c *gin.Context) {
	var req updateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	client, err := h.clients.Update(c.Request.Context(), middleware.UserID(c), c.Param("id"),
		services.UpdateClientRequest{
			Name:        req.Name,
			Description: req.Description,
			HomepageURL: req.HomepageURL,
		})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toClientView(client))
}

// Delete removes a client and its credentials.
//
//	DELETE /api/clients/:id
func (h *ClientHandler) Delete(c *gin.Context) {
	if err := h.clients.Delete(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type addRedirectURIRequest struct {
	URI string `json:"uri" binding:"required"`
}

// AddRedirectURI registers another redirect URI.
//
//	POST /api/clients/:id/redirect_uris
func (h *ClientHandler) AddRedirectURI(c *gin.Context) {
	var req addRedirectURIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "uri is required")
		return
	}

	uri, err := h.clients.AddRedirectURI(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.URI)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, redirectURIView{ID: uri.ID, URI: uri.URI})
}

// RemoveRedirectURI deletes a redirect URI. The last one cannot be removed.
//
//	DELETE /api/clients/:id/redirect_uris/:uri_id
func (h *ClientHandler) RemoveRedirectURI(c *gin.Context) {
	uriID, err := strconv.ParseUint(c.Param("uri_id"), 10, 64)
	if err != nil {
		badRequest(c, "uri_id must be numeric")
		return
	}

	err = h.clients.RemoveRedirectURI(c.Request.Context(), middleware.UserID(c), c.Param("id"), uint(uriID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
