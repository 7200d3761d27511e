package conversation

const (
	textWelcome         = "Hi! I collect voice quotes. Use the buttons below to add a new one."
	textUseSearch       = "Only administrators can add quotes. To find one, type the bot's @username and a few words in any chat."
	textAskVoice        = "Send the voice message you want to add as a quote."
	textAskCaption      = "Great! Now send a caption for this voice quote."
	textPublished       = "The quote is published to the channel and saved. What next?"
	textFinished        = "Done. Send /start to begin again."
	textVoiceFirst      = "Press \"Add quote\" first."
	textVoiceExpected   = "I'm waiting for a voice message."
	textCaptionExpected = "Send a caption for the voice that was just published, or press Finish."
	textEmptyCaption    = "The caption can't be empty. Send some text."
	textSendFailed      = "Could not publish the voice to the channel (%s). Make sure the bot is a channel admin and send the voice again."
	textEditFailed      = "Could not add the caption in the channel (%s). Send the caption again."
	textStoreFailed     = "The caption is set, but the quote could not be saved. Send the caption again."
	textDuplicate       = "This voice is already saved as a quote."
	textAskForward      = "Forward any message from the user you want to make an admin."
	textForwardExpected = "Forward a message from the user you want to make an admin, or press Finish."
	textHiddenSender    = "That user hides their account in forwarded messages, so I can't identify them."
	textSelfPromotion   = "You are already an admin and can't promote yourself."
	textAlreadyAdmin    = "%s is already an admin."
	textPromoted        = "%s is now an admin."
	textNoQuotes        = "No quotes yet."
	textQuotesHeader    = "Quotes, page %d of %d:"
	textAdminsHeader    = "Admins:"
	textSelfRemoval     = "You can't remove yourself from the admins."
	textStorageFailed   = "Storage is unavailable right now. Please try again."
	textUnknownAction   = "This button is no longer supported."
	textNotAdminAnymore = "You are no longer an admin. The current action was cancelled."

	labelAddQuote   = "Add quote"
	labelAddAnother = "Add another"
	labelAddAdmin   = "Add admin"
	labelQuotes     = "Quotes"
	labelAdmins     = "Admins"
	labelFinish     = "Finish"
	labelPrev       = "« Prev"
	labelNext       = "Next »"
	labelMenu       = "« Menu"
	labelDelete     = "🗑 %s"
	labelRemove     = "✖ %s"
)
