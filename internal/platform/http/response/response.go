// Package response writes the JSON envelopes of the API.
package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Statuses used in envelopes.
const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// Envelope is the body of every API response.
type Envelope struct {
	Status  string `json:"status"`
	Results *int   `json:"results,omitempty"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// List writes a list of documents with their count.
func List(c *gin.Context, results int, docs any) {
	c.JSON(http.StatusOK, Envelope{
		Status:  StatusSuccess,
		Results: &results,
		Data:    gin.H{"data": docs},
	})
}

// Data writes a single document under data.data.
func Data(c *gin.Context, status int, doc any) {
	c.JSON(status, Envelope{Status: StatusSuccess, Data: gin.H{"data": doc}})
}

// Named writes a payload under data.<key>.
func Named(c *gin.Context, status int, key string, v any) {
	c.JSON(status, Envelope{Status: StatusSuccess, Data: gin.H{key: v}})
}

// Token writes a freshly issued token together with the user it belongs to.
func Token(c *gin.Context, status int, token string, user any) {
	c.JSON(status, Envelope{Status: StatusSuccess, Token: token, Data: gin.H{"user": user}})
}

// Message writes a success envelope carrying only a message.
func Message(c *gin.Context, status int, msg string) {
	c.JSON(status, Envelope{Status: StatusSuccess, Message: msg})
}

// Failure writes an error envelope. 4xx responses are "fail", 5xx "error".
func Failure(c *gin.Context, status int, msg string, detail string) {
	s := StatusFail
	if status >= http.StatusInternalServerError {
		s = StatusError
	}
	c.JSON(status, Envelope{Status: s, Message: msg, Error: detail})
}
