package bot

// Access predicates. Every handler is gated by exactly one of these
// before it touches any state; a failed gate produces the uniform
// forbidden reply with no further detail.

// canUseUserCommands reports whether the caller is registered.
func (b *Bot) canUseUserCommands(callerID string) bool {
	ok, err := b.users.IsRegistered(callerID)
	if err != nil {
		b.log.Error("registration check failed", "caller", callerID, "error", err)
		return false
	}
	return ok
}

// canUseAdminCommands reports whether the caller is a registered
// admin. Unknown callers are simply not admins.
func (b *Bot) canUseAdminCommands(callerID string) bool {
	ok, err := b.users.IsAdmin(callerID)
	if err != nil {
		b.log.Error("admin check failed", "caller", callerID, "error", err)
		return false
	}
	return ok
}
