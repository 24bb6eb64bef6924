package cli

import (
	"context"
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/dmitrijs2005/maillist/internal/server/mirror"
	"github.com/dmitrijs2005/maillist/internal/server/models"
	"github.com/dmitrijs2005/maillist/internal/server/publish"
	"github.com/dmitrijs2005/maillist/internal/server/services"
	"github.com/dmitrijs2005/maillist/internal/timex"
	"github.com/dmitrijs2005/maillist/internal/verifycode"
)

// testCode is the fixed code sent by send-test.
const testCode = "123456"

var listHeader = []string{"ID", "Email", "Time", "Send", "Verified", "Code", "Expires"}

// mirrorService opens the store (migrating it) and returns a MirrorService
// over it. The caller must close the returned db.
func (a *App) mirrorService(ctx context.Context) (*services.MirrorService, *sql.DB, error) {
	db, rm, err := openStore(ctx, a.serverConfig)
	if err != nil {
		return nil, nil, err
	}
	store := mirror.NewCSVStore(a.serverConfig.MirrorPath, a.logger)
	publisher := newPublisher(ctx, a.serverConfig, a.logger)
	return services.NewMirrorService(db, rm, store, publisher, a.logger, nil), db, nil
}

func (a *App) migrate(ctx context.Context, _ []string) error {
	db, _, err := openStore(ctx, a.serverConfig)
	if err != nil {
		return err
	}
	defer db.Close()

	fmt.Fprintln(a.out, "Database is up to date:", a.serverConfig.DatabaseDSN)
	return nil
}

func (a *App) list(ctx context.Context, _ []string) error {
	svc, db, err := a.mirrorService(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	subs, err := svc.ListSubscribers(ctx)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(subs))
	for _, s := range subs {
		rows = append(rows, a.listRow(s))
	}

	if writesToTerminal(a.out) {
		return writeTable(a.out, rows)
	}
	return writeCSV(a.out, rows)
}

func (a *App) listRow(s *models.Subscriber) []string {
	code, expires := "-", "-"
	if s.HasPendingCode() {
		code = verifycode.Fingerprint(s.CodeDigest)
		expires = timex.Remaining(a.now(), s.CodeExpiresAt)
	}
	return []string{
		strconv.FormatInt(s.ID, 10),
		s.Email,
		timex.FormatISO(s.SignupTime),
		yesNo(s.Send),
		yesNo(s.Verified),
		code,
		expires,
	}
}

func writeTable(w io.Writer, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	writeRow := func(r []string) {
		for i, f := range r {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			fmt.Fprint(tw, f)
		}
		fmt.Fprintln(tw)
	}
	writeRow(listHeader)
	for _, r := range rows {
		writeRow(r)
	}
	return tw.Flush()
}

func writeCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(listHeader); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func (a *App) rebuildMirror(ctx context.Context, _ []string) error {
	svc, db, err := a.mirrorService(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := svc.RebuildMirror(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Mirror rebuilt: %d records -> %s\n", n, a.serverConfig.MirrorPath)
	return nil
}

func (a *App) publishMirror(ctx context.Context, _ []string) error {
	svc, db, err := a.mirrorService(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	out, err := svc.PublishMirror(ctx)
	if errors.Is(err, publish.ErrDisabled) {
		return fmt.Errorf("%w (set S3_BUCKET)", err)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Published:", out.Key)
	fmt.Fprintln(a.out, "Download:", out.URL)
	return nil
}

func (a *App) sendTest(ctx context.Context, args []string) error {
	notifier, err := newNotifier(notifierConfig(a), a.logger)
	if err != nil {
		return err
	}

	var address string
	if len(args) > 0 {
		address = args[0]
	} else {
		address, err = GetSimpleText(a.reader, "Send a test code to", a.out)
		if err != nil {
			return err
		}
	}

	address = services.NormalizeEmail(address)
	if !services.ValidEmail(address) {
		return fmt.Errorf("%s: %q", services.MsgInvalidEmail, address)
	}

	if err := notifier.SendVerificationCode(ctx, address, testCode); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Test code %s sent to %s\n", testCode, address)
	return nil
}
