package bot

// Canned replies. All replies are HTML-formatted for the chat
// service; the menus keep the command inventory the deployed bot's
// users already know.

const helpMenu = `
    <b>• Full-Access Mailer 🛠</b>

	<code>/help</code>
• Displays this current menu.

	<code>/template</code>
• Uploads a specified mail template.

	<code>/emails</code>
• Lists the cached emails.

	<code>/delmail</code>
• Removes a mail from the cache.

	<code>/auth email password</code>
• Authenticates into an email.

	<code>/history</code>
• Lists your recent send attempts.

• Supported mail clients: <code>aol</code>, <code>yahoo</code>, <code>gmail</code>

	<code>/sendmail 'subject' from-name from-email reply-to-name reply-to target-email</code>
• Sends an email to the provided email address.
`

const operatorMenu = `
    <b>• Full-Access Mailer 🛠</b>

	<code>/operator</code>
• Displays this current menu.

	<code>/adduser telegram-id admin</code>
• Adds a user to the bot.

	<code>/listusers</code>
• Lists the users on the bot.

	<code>/deluser telegram-id</code>
• Deletes a user from the bot.
`

const (
	msgForbidden    = "<b>Forbidden.</b>"
	msgUnexpected   = "<b>Something went wrong, please try again.</b>"
	msgInvalidArgs  = "<b>Invalid number of arguments provided!</b>"
	msgInvalidEmail = "<b>Invalid email provided!</b>"
	msgInvalidSendEmail = "<b>Invalid email provided, ensure all arguments " +
		"that require emails contain valid emails!</b>"
	msgEmailMissing = "<b>Email doesn't exist!</b>"
	msgNoEmails     = "<b>There are no emails in the cache!</b>"
	msgNoUsers      = "<b>There are no users in the database!</b>"
	msgNoHistory    = "<b>There are no sends in the history!</b>"
	msgUserExists   = "<b>User already exists!</b>"
	msgUserMissing  = "<b>User doesn't exist!</b>"
	msgInvalidID    = "<b>Invalid telegram ID passed!</b>"
	msgInvalidAdmin = "<b>Invalid admin value passed!</b>"
	msgStart        = "<b>If you're registered on the bot, run " +
		"<code>/help</code> to get started.</b>"
	msgUploadPrompt = "<b>Upload your mail template!</b>"
	msgUploadFailed = "<b>File upload failed due to a backend error, " +
		"please try again.</b>"
	msgNotDocument = "<b>Please ensure your file is a document, " +
		"and not an image, video, etc.</b>"
	msgRunTemplate = "<b>Please run <code>/template</code> to upload " +
		"a custom mail template.</b>"
)

const (
	userLineFormat  = "<b>uuid: <code>%s</code> admin: <code>%t</code></b>\n"
	emailLineFormat = "<b>email: <code>%s</code> password: <code>%s</code></b>\n"
)
