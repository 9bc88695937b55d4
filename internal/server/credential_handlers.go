package server

import (
	"net/http"

	"stackmon/internal/errors"

	"github.com/labstack/echo/v4"
)

// handleListCredentials godoc
// @Summary List API keys
// @Description Masked key information for every supported provider
// @Tags credentials
// @Produce json
// @Success 200 {object} CredentialsResponse
// @Router /api/credentials [get]
func (s *Server) handleListCredentials(c echo.Context) error {
	infos, err := s.creds.List(c.Request().Context())
	if err != nil {
		return err
	}
	resp := CredentialsResponse{Credentials: infos}
	for _, info := range infos {
		if info.Configured {
			resp.Configured++
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// handleGetCredential godoc
// @Summary Get an API key
// @Tags credentials
// @Produce json
// @Param provider path string true "Provider"
// @Success 200 {object} credentials.KeyInfo
// @Failure 404 {object} errors.HTTPErrorResponse
// @Router /api/credentials/{provider} [get]
func (s *Server) handleGetCredential(c echo.Context) error {
	info, err := s.creds.Info(c.Request().Context(), c.Param("provider"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, info)
}

// handleSetCredential godoc
// @Summary Set an API key
// @Tags credentials
// @Accept json
// @Produce json
// @Param provider path string true "Provider"
// @Param request body SetCredentialRequest true "Key"
// @Success 200 {object} credentials.KeyInfo
// @Failure 400 {object} errors.HTTPErrorResponse
// @Failure 404 {object} errors.HTTPErrorResponse
// @Router /api/credentials/{provider} [put]
func (s *Server) handleSetCredential(c echo.Context) error {
	var req SetCredentialRequest
	if err := c.Bind(&req); err != nil {
		return errors.BadRequest("Invalid request body", err.Error())
	}
	info, err := s.creds.Set(c.Request().Context(), c.Param("provider"), req.APIKey)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, info)
}

// handleRemoveCredential godoc
// @Summary Remove an API key
// @Tags credentials
// @Param provider path string true "Provider"
// @Success 204
// @Failure 404 {object} errors.HTTPErrorResponse
// @Router /api/credentials/{provider} [delete]
func (s *Server) handleRemoveCredential(c echo.Context) error {
	if err := s.creds.Remove(c.Request().Context(), c.Param("provider")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
