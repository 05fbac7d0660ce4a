package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

// DomainErrorsSuite tests the domain error primitives.
//
// These are core error primitives used at every trust boundary. Unit tests
// ensure invariants like "wrapped domain errors preserve original code" and
// "errors.Is matches by code" are maintained.
type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorInterface() {
	s.Run("returns message when present", func() {
		err := &Error{Code: CodeNotFound, Message: "consent record not found"}
		s.Equal("consent record not found", err.Error())
	})

	s.Run("returns code when message is empty", func() {
		err := &Error{Code: CodeNotFound}
		s.Equal("not_found", err.Error())
	})
}

func (s *DomainErrorsSuite) TestUnwrap() {
	cause := fmt.Errorf("connection refused")
	err := Wrap(cause, CodeInternal, "failed to save consent")

	s.True(errors.Is(err, cause), "wrapped cause should be reachable via errors.Is")
}

func (s *DomainErrorsSuite) TestIsMatchesByCode() {
	err := New(CodeValidation, "analytics flag malformed")

	s.True(errors.Is(err, &Error{Code: CodeValidation}))
	s.False(errors.Is(err, &Error{Code: CodeInternal}))
}

func (s *DomainErrorsSuite) TestWrapPreservesDomainCode() {
	inner := New(CodeUnauthorized, "missing client context")
	outer := Wrap(inner, CodeInternal, "decision failed")

	s.True(HasCode(outer, CodeUnauthorized), "original domain code should survive wrapping")
	s.False(HasCode(outer, CodeInternal))
}

func (s *DomainErrorsSuite) TestHasCode() {
	s.Run("matches direct error", func() {
		s.True(HasCode(New(CodeConflict, "duplicate decision"), CodeConflict))
	})

	s.Run("rejects plain errors", func() {
		s.False(HasCode(errors.New("boom"), CodeInternal))
	})

	s.Run("rejects nil", func() {
		s.False(HasCode(nil, CodeInternal))
	})
}
