package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/docuchat/docuchat-backend/internal/services"
)

type QueryHandler struct {
	conversations services.ConversationService
}

func NewQueryHandler(conversations services.ConversationService) *QueryHandler {
	return &QueryHandler{conversations: conversations}
}

// Ask submits one question against the project's conversation. The answer
// comes back as the full transcript so the caller can render the exchange
// without a second fetch. On a backend failure the transcript still carries
// the question with no answer, and the error rides alongside it.
func (qh *QueryHandler) Ask(c *gin.Context) {
	scope, err := scopeFromRequest(c)
	if err != nil {
		RespondError(c, statusFor(err), codeFor(err), err)
		return
	}
	var req struct {
		Question string `json:"question"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	transcript, err := qh.conversations.Send(c.Request.Context(), scope, req.Question)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error(), "transcript": transcript})
		return
	}
	RespondOK(c, gin.H{"transcript": transcript})
}

func (qh *QueryHandler) Transcript(c *gin.Context) {
	scope, err := scopeFromRequest(c)
	if err != nil {
		RespondError(c, statusFor(err), codeFor(err), err)
		return
	}
	transcript := qh.conversations.Transcript(scope)
	c.JSON(http.StatusOK, gin.H{"transcript": transcript})
}
