package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/zarlcorp/zbook/internal/address"
	"github.com/zarlcorp/zbook/internal/apperr"
	"github.com/zarlcorp/zbook/internal/book"
	"github.com/zarlcorp/zbook/internal/lookupserver"
	"github.com/zarlcorp/zbook/internal/search"
	"github.com/zarlcorp/zbook/internal/store"
)

// cmdSearch looks up candidates and prints them.
func (a *App) cmdSearch(ctx context.Context, args []string) error {
	fs := a.flagSet("search")
	asJSON := fs.Bool("json", false, "print candidates as JSON")
	if err := a.parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("%w: zbook search <postcode> <number> [--json]", ErrUsage)
	}

	candidates, err := a.search(ctx, fs.Arg(0), fs.Arg(1))
	if err != nil {
		return err
	}

	if *asJSON {
		return a.printJSON(candidates)
	}
	for i, c := range candidates {
		fmt.Fprintf(a.out, "  [%d] %s\n", i, c.Label())
	}
	return nil
}

// cmdAdd searches, commits one candidate with a name and saves it.
func (a *App) cmdAdd(ctx context.Context, args []string) error {
	fs := a.flagSet("add")
	postCode := fs.String("postcode", "", "postcode to search")
	number := fs.String("number", "", "house number to search")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	pick := fs.Int("pick", 0, "index of the candidate to save")
	if err := a.parse(fs, args); err != nil {
		return err
	}

	candidates, err := a.search(ctx, *postCode, *number)
	if err != nil {
		return err
	}

	if *pick < 0 || *pick >= len(candidates) {
		return fmt.Errorf("%w: --pick %d out of range (0..%d)", ErrUsage, *pick, len(candidates)-1)
	}

	entry, err := book.Commit(candidates, candidates[*pick].ID, *first, *last)
	if err != nil {
		return err
	}

	bk, closeFn, err := a.openBook(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	if err := bk.Add(ctx, entry); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "saved %s (%s, %s)\n", entry.ID, entry.Name(), entry.Label())
	return nil
}

// cmdList prints the saved address book.
func (a *App) cmdList(ctx context.Context, args []string) error {
	fs := a.flagSet("list")
	asJSON := fs.Bool("json", false, "print entries as JSON")
	if err := a.parse(fs, args); err != nil {
		return err
	}

	bk, closeFn, err := a.openBook(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	entries := bk.List()
	if *asJSON {
		if entries == nil {
			entries = []address.Address{}
		}
		return a.printJSON(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(a.out, "no saved addresses")
		return nil
	}
	for _, e := range entries {
		fmt.Fprintf(a.out, "  %-36s %-24s %s\n", e.ID, e.Name(), e.Label())
	}
	return nil
}

// cmdRemove deletes a saved entry by id.
func (a *App) cmdRemove(ctx context.Context, args []string) error {
	fs := a.flagSet("remove")
	if err := a.parse(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: zbook remove <id>", ErrUsage)
	}
	id := fs.Arg(0)

	bk, closeFn, err := a.openBook(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	if _, ok := bk.Get(id); !ok {
		return fmt.Errorf("remove %s: %w", id, store.ErrNotFound)
	}
	if err := bk.Remove(ctx, id); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "deleted %s\n", id)
	return nil
}

// cmdServe runs the mock lookup endpoint until ctx is done.
func (a *App) cmdServe(ctx context.Context, args []string) error {
	fs := a.flagSet("serve")
	addr := fs.String("addr", a.cfg.Serve.Addr, "listen address")
	delay := fs.Duration("delay", a.cfg.Serve.Delay, "delay before successful responses")
	if err := a.parse(fs, args); err != nil {
		return err
	}

	srv := lookupserver.New(lookupserver.Config{
		Delay:       *delay,
		CORSOrigins: a.cfg.Serve.CORSOrigins,
		RateLimit:   a.cfg.Serve.RateLimit,
		RateBurst:   a.cfg.Serve.RateBurst,
		Logger:      a.log,
	})
	return srv.Run(ctx, *addr)
}

// search runs one lookup through the search controller and returns the
// candidates, or the controller's error message.
func (a *App) search(ctx context.Context, postCode, houseNumber string) ([]address.Address, error) {
	ctrl := search.New(a.searcher, search.WithLogger(a.log))
	ctrl.Search(ctx, postCode, houseNumber)
	ctrl.Wait()

	st := ctrl.State()
	switch {
	case st.Status == search.Success:
		return st.Results, nil
	case st.Err == search.MsgMissingInput:
		return nil, apperr.Validation(st.Err)
	}
	return nil, apperr.New(apperr.KindRemote, st.Err)
}

func (a *App) openBook(ctx context.Context) (*book.Store, func(), error) {
	gw, err := a.openGateway(ctx)
	if err != nil {
		if errors.Is(err, store.ErrWrongPassword) {
			return nil, nil, errors.New("wrong password")
		}
		return nil, nil, fmt.Errorf("open storage: %w", err)
	}

	bk := book.New(gw, book.WithLogger(a.log))
	bk.LoadSaved(ctx)

	return bk, func() {
		if err := gw.Close(); err != nil {
			a.log.Warn("close storage", "err", err)
		}
	}, nil
}
