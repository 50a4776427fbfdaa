package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophdrive/internal/client/client"
)

// getSimpleText and getPasscode are indirections used to facilitate testing.
var getSimpleText = GetSimpleText
var getPasscode = GetPasscode

// SignUp asks for a full name and email, then completes the passcode step.
func (a *App) SignUp(ctx context.Context) error {
	fullName, err := getSimpleText(a.reader, "Enter full name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	accountID, err := a.authService.SignUp(ctx, fullName, email)
	if err != nil {
		return a.report(fmt.Errorf("failed to create an account: %w", err))
	}
	return a.verify(ctx, email, accountID)
}

// SignIn asks for an email. Unknown emails are told to sign up.
func (a *App) SignIn(ctx context.Context) error {
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}

	accountID, err := a.authService.SignIn(ctx, email)
	if errors.Is(err, client.ErrUserNotFound) {
		a.printf("User not found. Please sign up.\n")
		return err
	}
	if err != nil {
		return a.report(fmt.Errorf("failed to sign in: %w", err))
	}
	return a.verify(ctx, email, accountID)
}

func (a *App) verify(ctx context.Context, email, accountID string) error {
	code, err := getPasscode(a.reader, a.out)
	if err != nil {
		return err
	}

	user, err := a.authService.Verify(ctx, email, accountID, code)
	if err != nil {
		return a.report(err)
	}

	a.user = user
	a.setLocation("/")
	a.printf("Signed in as %s <%s>\n", user.FullName, user.Email)
	return nil
}

// SignOut ends the session. Local state is cleared even when the server
// cannot be reached.
func (a *App) SignOut(ctx context.Context) error {
	err := a.authService.SignOut(ctx)
	a.user = nil
	a.last = nil
	a.clearResults()
	a.setLocation("/sign-in")
	if err != nil {
		a.logger.Warn(ctx, "sign-out incomplete", "error", err)
	}
	a.printf("Signed out\n")
	return nil
}
