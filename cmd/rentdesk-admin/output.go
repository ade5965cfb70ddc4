package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	domainauth "github.com/target/rentdesk/internal/domain/auth"
	"github.com/target/rentdesk/internal/migrate"
)

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	_, err := fmt.Fprintln(w, args...)
	return err
}

func printProfile(w io.Writer, userID string, p domainauth.Profile) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	rows := [][2]string{{"User", userID}, {"Role", p.Role.String()}}
	switch {
	case p.Admin != nil:
		rows = append(rows,
			[2]string{"Name", p.Admin.FullName},
			[2]string{"Active", fmt.Sprint(p.Admin.IsActive)},
			[2]string{"Created", formatTime(p.Admin.CreatedAt)},
		)
	case p.Tenant != nil:
		rows = append(rows,
			[2]string{"Name", p.Tenant.FullName},
			[2]string{"Property", orID(p.Tenant.PropertyName, p.Tenant.PropertyID)},
			[2]string{"Unit", orID(p.Tenant.UnitLabel, p.Tenant.UnitID)},
			[2]string{"Created", formatTime(p.Tenant.CreatedAt)},
		)
	default:
		rows = append(rows, [2]string{"Status", "no profile; the user will see the unauthorized page"})
	}
	for _, r := range rows {
		if err := writef(tw, "%s\t%s\n", r[0], r[1]); err != nil {
			return fmt.Errorf("write profile row %q: %w", r[0], err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush profile: %w", err)
	}
	return nil
}

func printMigrations(w io.Writer, statuses []migrate.Status) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if err := writeln(tw, "VERSION\tSTATUS"); err != nil {
		return fmt.Errorf("write migration header: %w", err)
	}
	for _, s := range statuses {
		status := "pending"
		if s.Applied {
			status = "applied"
		}
		if err := writef(tw, "%s\t%s\n", s.Version, status); err != nil {
			return fmt.Errorf("write migration %q: %w", s.Version, err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flush migrations: %w", err)
	}
	return nil
}

func orID(name, id string) string {
	if name == "" {
		return id
	}
	if id == "" {
		return name
	}
	return name + " (" + id + ")"
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}
