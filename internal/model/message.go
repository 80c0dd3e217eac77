package model

// InboundMessage is a customer email as fetched from the mailbox.
type InboundMessage struct {
	// Handle is the mailbox-local identifier (IMAP UID or Gmail message id).
	Handle string `json:"handle"`
	// MessageID is the RFC 5322 Message-ID header, empty when absent.
	MessageID string `json:"message_id"`
	Sender    string `json:"sender"`
	// SenderAddress is the bare address parsed from Sender, used for replies.
	SenderAddress string `json:"sender_address"`
	Subject       string `json:"subject"`
	Body          string `json:"body"`
}

// ReplyTo returns the address replies should go to.
func (m InboundMessage) ReplyTo() string {
	if m.SenderAddress != "" {
		return m.SenderAddress
	}
	return m.Sender
}

// DedupeKey identifies the message across runs.
func (m InboundMessage) DedupeKey() string {
	if m.MessageID != "" {
		return m.MessageID
	}
	return m.Handle
}

// ReplyResult is the interpreted output of the language model.
type ReplyResult struct {
	Category  Category `json:"category"`
	Answer    string   `json:"answer"`
	ModelUsed string   `json:"model_used"`
}

// OutboundReply is what the dispatcher sends back to the customer.
type OutboundReply struct {
	To        string
	Subject   string
	Body      string
	InReplyTo string
}
