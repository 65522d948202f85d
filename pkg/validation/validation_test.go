package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "confsite/pkg/domain-errors"
)

type ranks struct {
	First int `json:"first" validate:"min=1,max=4"`
}

type sample struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"notblank"`
	Website  string `json:"website" validate:"omitempty,url"`
	Kind     string `json:"kind" validate:"oneof=a b"`
	Accepted bool   `json:"accepted" validate:"eq=true"`
	Ranks    ranks  `json:"ranks"`
	NoTag    string `validate:"required"`
}

func valid() sample {
	return sample{Email: "ada@example.org", Name: "Ada", Kind: "a", Accepted: true, Ranks: ranks{First: 1}, NoTag: "x"}
}

func TestValidate(t *testing.T) {
	t.Run("valid struct passes", func(t *testing.T) {
		req := valid()
		assert.NoError(t, Validate(&req))
	})

	t.Run("reports every failing field by wire name", func(t *testing.T) {
		req := valid()
		req.Email = "nope"
		req.Name = "   "
		req.Website = "not a url"
		req.Kind = "c"
		req.Accepted = false
		req.Ranks.First = 9
		req.NoTag = ""

		err := Validate(&req)
		require.Error(t, err)

		var domainErr *dErrors.Error
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, dErrors.CodeValidation, domainErr.Code)
		assert.Equal(t, map[string]string{
			"email":       "email must be a valid email",
			"name":        "name must not be blank",
			"website":     "website must be a valid url",
			"kind":        "kind must be one of [a b]",
			"accepted":    "accepted must be true",
			"ranks.first": "first must be at most 4",
			"no_tag":      "no_tag is required",
		}, domainErr.Fields)
	})
}
