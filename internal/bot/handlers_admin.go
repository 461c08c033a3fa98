package bot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/nhle/mailerbot/internal/store"
)

func (b *Bot) handleOperator(_ context.Context, _ request) string {
	return operatorMenu
}

// handleAdduser registers a caller id, optionally as an admin.
func (b *Bot) handleAdduser(_ context.Context, req request) string {
	if len(req.Args) != 2 {
		return msgInvalidArgs
	}

	id, err := strconv.ParseInt(req.Args[0], 10, 64)
	if err != nil {
		return msgInvalidID
	}

	adminFlag, err := strconv.Atoi(req.Args[1])
	if err != nil {
		return msgInvalidAdmin
	}

	if err := b.users.AddUser(strconv.FormatInt(id, 10), adminFlag != 0); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return msgUserExists
		}
		b.log.Error("adding user failed", "id", id, "error", err)
		return msgUnexpected
	}

	return fmt.Sprintf(
		"<b>Successfully added user ID <code>%d</code> to the database!</b>", id,
	)
}

// handleListusers lists every registered id and its admin flag.
func (b *Bot) handleListusers(_ context.Context, _ request) string {
	users, err := b.users.ListUsers()
	if err != nil {
		b.log.Error("listing users failed", "error", err)
		return msgUnexpected
	}

	if len(users) == 0 {
		return msgNoUsers
	}

	ids := make([]string, 0, len(users))
	for id := range users {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var sb strings.Builder
	for _, id := range ids {
		fmt.Fprintf(&sb, userLineFormat, id, users[id].Admin)
	}
	return sb.String()
}

// handleDeluser removes a registered id.
func (b *Bot) handleDeluser(_ context.Context, req request) string {
	if len(req.Args) != 1 {
		return msgInvalidArgs
	}

	id, err := strconv.ParseInt(req.Args[0], 10, 64)
	if err != nil {
		return msgInvalidID
	}

	if err := b.users.RemoveUser(strconv.FormatInt(id, 10)); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return msgUserMissing
		}
		b.log.Error("removing user failed", "id", id, "error", err)
		return msgUnexpected
	}

	return fmt.Sprintf(
		"<b>Successfully removed user ID <code>%d</code> from the database!</b>", id,
	)
}
