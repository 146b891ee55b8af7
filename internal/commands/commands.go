package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"skillconnect/internal/api"
	"skillconnect/internal/app"
	"skillconnect/internal/models"
)

func Login(ctx context.Context, a *app.App, email, password string, out io.Writer) error {
	s, err := a.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login failed: %s", app.ErrorMessage(err))
	}

	fmt.Fprintf(out, "\nLogged in successfully!\n")
	fmt.Fprintf(out, "Email:              %s\n", s.Email)
	fmt.Fprintf(out, "Role:               %s\n", s.Role)
	if a.Auth.NeedsOnboarding() {
		fmt.Fprintln(out, "\nYour profile is not complete yet. Finish the profile setup to get started.")
	}
	return nil
}

func Logout(a *app.App, out io.Writer) error {
	if !a.Auth.Session().Authenticated() {
		fmt.Fprintln(out, "Not logged in.")
		return nil
	}
	if err := a.Logout(); err != nil {
		return fmt.Errorf("failed to remove saved session: %w", err)
	}
	fmt.Fprintln(out, "Logged out.")
	return nil
}

func Services(ctx context.Context, a *app.App, out io.Writer) error {
	services, err := a.API.Services(ctx)
	if errors.Is(err, api.ErrNoSession) || errors.Is(err, api.ErrUnauthorized) {
		return fmt.Errorf("not logged in, run login first")
	}
	if err != nil {
		return fmt.Errorf("failed to list services: %w", err)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPRICE\tLOCATION")
	for _, s := range services {
		fmt.Fprintf(tw, "%d\t%s\t%.2f\t%s\n", s.ID, s.Title, s.Price, s.WorkerLocation)
	}
	return tw.Flush()
}

// Listen prints notifications as they arrive until ctx is done.
func Listen(ctx context.Context, a *app.App, out io.Writer) error {
	if !a.Connected() {
		return fmt.Errorf("not connected to live notifications, run login first")
	}

	unsubscribe := a.Feed.Subscribe(func(n models.Notification) {
		fmt.Fprintf(out, "[%s] %s\n", n.ReceivedAt.Format("15:04:05"), n.Payload)
	})
	defer unsubscribe()

	fmt.Fprintln(out, "Listening for notifications, press Ctrl+C to stop.")
	<-ctx.Done()
	return nil
}
