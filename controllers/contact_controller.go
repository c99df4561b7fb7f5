package controllers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gabigab117/platforum/config"
	"github.com/gabigab117/platforum/utils"
)

// ContactController relays the public contact form by mail.
type ContactController struct{}

// NewContactController creates a ContactController.
func NewContactController() *ContactController {
	return &ContactController{}
}

// Submit relays the form to the configured contact address. Delivery failure
// is degraded to a warning in the response, never an error: the caller's
// input was valid and there is nothing they can do about our mail relay.
func (c *ContactController) Submit(ctx *gin.Context) {
	var req struct {
		Name    string `json:"name" binding:"required,min=1,max=100"`
		Email   string `json:"email" binding:"required,email"`
		Message string `json:"message" binding:"required,min=1,max=3000"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40070, "invalid request payload")
		return
	}

	to := config.Get().ContactEmail
	if to == "" {
		utils.Sugar.Warn("contact form submitted but no contact address configured")
		utils.Success(ctx, gin.H{"message": "thanks, we received your message", "delivered": false})
		return
	}

	body := fmt.Sprintf("From: %s <%s>\n\n%s",
		strings.TrimSpace(req.Name), strings.TrimSpace(req.Email), req.Message)
	delivered := true
	if err := utils.SendMail(to, "Contact form", body); err != nil {
		utils.Sugar.Warnw("contact mail failed", "err", err)
		delivered = false
	}

	utils.Success(ctx, gin.H{"message": "thanks, we received your message", "delivered": delivered})
}
