package book

import "github.com/zarlcorp/zbook/internal/address"

// Action is a change to the address book.
type Action interface {
	op() string
}

// AddAction upserts an address by id.
type AddAction struct {
	Address address.Address
}

// RemoveAction deletes the address with ID.
type RemoveAction struct {
	ID string
}

// ReplaceAction swaps the whole list.
type ReplaceAction struct {
	Addresses []address.Address
}

func (AddAction) op() string     { return "add" }
func (RemoveAction) op() string  { return "remove" }
func (ReplaceAction) op() string { return "replace" }

// reduce returns the list after applying a. The input is not modified.
func reduce(list []address.Address, a Action) []address.Address {
	switch a := a.(type) {
	case AddAction:
		out := clone(list)
		for i := range out {
			if out[i].ID == a.Address.ID {
				out[i] = a.Address
				return out
			}
		}
		return append(out, a.Address)

	case RemoveAction:
		out := make([]address.Address, 0, len(list))
		for _, x := range list {
			if x.ID != a.ID {
				out = append(out, x)
			}
		}
		return out

	case ReplaceAction:
		return dedupe(a.Addresses)
	}
	return clone(list)
}

// dedupe keeps the last entry per id at the position of the first.
func dedupe(list []address.Address) []address.Address {
	out := make([]address.Address, 0, len(list))
	index := make(map[string]int, len(list))
	for _, a := range list {
		if i, ok := index[a.ID]; ok {
			out[i] = a
			continue
		}
		index[a.ID] = len(out)
		out = append(out, a)
	}
	return out
}
