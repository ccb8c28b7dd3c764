package lookupserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zarlcorp/zbook/internal/apperr"
)

// response messages
const (
	MsgFieldsRequired     = "Postcode and street number fields mandatory!"
	MsgPostcodeTooShort   = "Postcode must be at least 4 digits!"
	MsgPostcodeNotDigits  = "Postcode must be all digits and non negative!"
	MsgStreetNumNotDigits = "Street Number must be all digits and non negative!"
	MsgNoResults          = "No results found!"
)

type searchQuery struct {
	PostCode     string `form:"postcode"`
	StreetNumber string `form:"streetnumber"`
}

// rule is one validation step; rules run in order and the first failure wins.
type rule struct {
	value func(searchQuery) string
	tag   string
	msg   string
}

var rules = []rule{
	{func(q searchQuery) string { return q.PostCode }, "required", MsgFieldsRequired},
	{func(q searchQuery) string { return q.StreetNumber }, "required", MsgFieldsRequired},
	{func(q searchQuery) string { return q.PostCode }, "min=4", MsgPostcodeTooShort},
	{func(q searchQuery) string { return q.PostCode }, "number", MsgPostcodeNotDigits},
	{func(q searchQuery) string { return q.StreetNumber }, "number", MsgStreetNumNotDigits},
}

func (s *Server) validate(q searchQuery) error {
	for _, r := range rules {
		if err := s.val.Var(r.value(q), r.tag); err != nil {
			return apperr.Validation(r.msg)
		}
	}
	return nil
}

func (s *Server) getAddresses(c *gin.Context) {
	var q searchQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, apperr.Validation(MsgFieldsRequired))
		return
	}

	if err := s.validate(q); err != nil {
		writeError(c, err)
		return
	}

	records := Generate(q.PostCode, q.StreetNumber)
	if len(records) == 0 {
		writeError(c, apperr.NotFound(MsgNoResults))
		return
	}

	if !s.wait(c) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"details": records,
	})
}

// wait holds the response back by the configured delay. It reports false
// when the client went away first.
func (s *Server) wait(c *gin.Context) bool {
	if s.cfg.Delay <= 0 {
		return true
	}

	t := time.NewTimer(s.cfg.Delay)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-c.Request.Context().Done():
		c.Abort()
		return false
	}
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var e *apperr.Error
	if errors.As(err, &e) {
		status = e.HTTPStatus()
	}
	c.AbortWithStatusJSON(status, gin.H{
		"status":       "error",
		"errormessage": apperr.Message(err),
	})
}
