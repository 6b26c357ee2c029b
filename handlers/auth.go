package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/agrichain/subsidy_backend/models"
	"github.com/agrichain/subsidy_backend/utils"
)

// Auth issues bearer tokens against the local user table.
type Auth struct {
	store *models.Store
	log   *logrus.Logger
}

func NewAuth(store *models.Store, log *logrus.Logger) *Auth {
	return &Auth{store: store, log: log}
}

func (h *Auth) Login(c *gin.Context) {
	var input models.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, err)
		return
	}

	user, err := h.store.FindUserByUsername(c.Request.Context(), input.Username)
	if err != nil {
		h.log.WithError(err).Error("login lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
		return
	}
	if user == nil || utils.ComparePassword(user.Password, input.Password) != nil {
		// Same answer for unknown user and wrong password.
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid credentials"})
		return
	}

	token, err := utils.JwtGenerate(user.ID, user.Role)
	if err != nil {
		h.log.WithError(err).Error("token generation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
		return
	}

	ok(c, gin.H{"token": token, "role": user.Role, "address": user.Address})
}
