package book

import (
	"strings"

	"github.com/zarlcorp/zbook/internal/address"
	"github.com/zarlcorp/zbook/internal/apperr"
)

// validation messages for committing a candidate
const (
	MsgNamesRequired     = "First name and last name fields mandatory!"
	MsgNoSelection       = "No address selected, try to select an address or find one if you haven't"
	MsgSelectionNotFound = "Selected address not found"
)

// Commit picks the selected candidate and attaches the person's name. Names
// are checked first, then the selection.
func Commit(candidates []address.Address, selectedID, firstName, lastName string) (address.Address, error) {
	if strings.TrimSpace(firstName) == "" || strings.TrimSpace(lastName) == "" {
		return address.Address{}, apperr.Validation(MsgNamesRequired)
	}

	if selectedID == "" || len(candidates) == 0 {
		return address.Address{}, apperr.Validation(MsgNoSelection)
	}

	for _, c := range candidates {
		if c.ID == selectedID {
			return c.WithPerson(firstName, lastName), nil
		}
	}

	return address.Address{}, apperr.NotFound(MsgSelectionNotFound)
}
