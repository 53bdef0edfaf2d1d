package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

// List reloads the stored conversations and prints them newest first. The
// printed numbers are what Open, Delete and Retention accept.
func (a *App) List(ctx context.Context) error {
	if !a.isUnlocked() {
		fmt.Println("Unlock the vault first")
		return nil
	}

	convs, err := a.vault.LoadAll(ctx, a.passphrase)
	if err != nil {
		log.Println(err.Error())
		return err
	}
	a.convs = convs

	if len(convs) == 0 {
		fmt.Println("No conversations")
		return nil
	}
	for i, c := range convs {
		line := fmt.Sprintf("%d. %s (%d message(s), created %s",
			i+1, c.Title, len(c.Messages), c.CreatedAt.Format("2006-01-02 15:04"))
		if c.ExpiresAt != nil {
			line += fmt.Sprintf(", expires %s", c.ExpiresAt.Format("2006-01-02 15:04"))
		}
		line += ")"
		fmt.Println(line)
	}
	return nil
}

// pickConversation prompts for a number from the last List output and
// returns the index into a.convs.
func (a *App) pickConversation(prompt string) (int, error) {
	if len(a.convs) == 0 {
		fmt.Println("No conversations, run 'list' first")
		return -1, nil
	}

	answer, err := getSimpleText(a.reader, prompt, os.Stdout)
	if err != nil {
		return -1, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(answer))
	if err != nil || n < 1 || n > len(a.convs) {
		fmt.Printf("Enter a number between 1 and %d\n", len(a.convs))
		return -1, nil
	}
	return n - 1, nil
}

// Open makes a stored conversation the current one and prints its
// messages.
func (a *App) Open(ctx context.Context) error {
	if !a.isUnlocked() {
		fmt.Println("Unlock the vault first")
		return nil
	}

	i, err := a.pickConversation("Enter conversation number")
	if err != nil || i < 0 {
		return err
	}

	conv := a.convs[i]
	a.current = &conv
	fmt.Printf("Opened %q\n", conv.Title)
	for _, m := range conv.Messages {
		fmt.Printf("[%s] %s\n", m.Role, m.Content)
	}
	return nil
}

// Delete removes one stored conversation.
func (a *App) Delete(ctx context.Context) error {
	if !a.isUnlocked() {
		fmt.Println("Unlock the vault first")
		return nil
	}

	i, err := a.pickConversation("Enter conversation number to delete")
	if err != nil || i < 0 {
		return err
	}

	conv := a.convs[i]
	if err := a.vault.Delete(ctx, conv.ID); err != nil {
		log.Println(err.Error())
		return err
	}
	if a.current != nil && a.current.ID == conv.ID {
		a.current = nil
	}
	a.convs = append(a.convs[:i], a.convs[i+1:]...)
	fmt.Printf("Deleted %q\n", conv.Title)
	return nil
}

// DeleteAll removes every stored conversation after confirmation.
func (a *App) DeleteAll(ctx context.Context) error {
	if !a.isUnlocked() {
		fmt.Println("Unlock the vault first")
		return nil
	}

	answer, err := getSimpleText(a.reader, "Delete ALL conversations? Type 'yes' to confirm", os.Stdout)
	if err != nil {
		return err
	}
	if answer != "yes" {
		fmt.Println("Aborted")
		return nil
	}

	if err := a.vault.DeleteAll(ctx); err != nil {
		log.Println(err.Error())
		return err
	}
	a.convs = nil
	a.current = nil
	fmt.Println("All conversations deleted")
	return nil
}

// Retention sets or clears the retention window of the current
// conversation. Enter a number of hours, or 'off' to keep it forever.
func (a *App) Retention(ctx context.Context) error {
	if !a.isUnlocked() {
		fmt.Println("Unlock the vault first")
		return nil
	}
	if a.current == nil {
		fmt.Println("Open a conversation first")
		return nil
	}

	answer, err := getSimpleText(a.reader, "Retention in hours ('off' to disable)", os.Stdout)
	if err != nil {
		return err
	}

	if strings.EqualFold(answer, "off") {
		a.current.SetRetention(nil)
	} else {
		hours, err := strconv.Atoi(answer)
		if err != nil || hours <= 0 {
			fmt.Println("Enter a positive number of hours or 'off'")
			return nil
		}
		a.current.SetRetention(&hours)
	}

	if err := a.vault.Save(ctx, a.current, a.passphrase); err != nil {
		log.Println(err.Error())
		return err
	}
	if a.current.ExpiresAt != nil {
		fmt.Printf("Conversation expires %s\n", a.current.ExpiresAt.Format("2006-01-02 15:04"))
	} else {
		fmt.Println("Conversation is kept forever")
	}
	return nil
}
