package debate

import (
	"context"
	"fmt"
	"strings"

	"github.com/avandyck/rostrum/internal/logging"
	"github.com/avandyck/rostrum/internal/provider"
)

// Debater produces one side's turns by mapping the transcript into a chat
// exchange and invoking the text generation client. Its own turns become
// assistant messages, the opponent's become user messages, so the model
// continues its half of the conversation.
type Debater struct {
	side       Side
	topic      string
	background string
	client     provider.Client
	logger     *logging.Logger
}

// NewDebater creates a debater for one side of the motion.
func NewDebater(side Side, topic, background string, client provider.Client, logger *logging.Logger) *Debater {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Debater{
		side:       side,
		topic:      topic,
		background: background,
		client:     client,
		logger:     logger.WithSide(string(side)),
	}
}

// Side returns which side this debater argues.
func (d *Debater) Side() Side {
	return d.side
}

// GenerateTurn produces the next utterance for this side given the
// transcript so far. Streaming deltas are forwarded to onDelta as they
// arrive; onDelta may be nil.
func (d *Debater) GenerateTurn(ctx context.Context, transcript []Turn, onDelta func(string)) (string, error) {
	req := provider.Request{
		System:   d.systemPrompt(),
		Messages: d.buildMessages(transcript),
		OnDelta:  onDelta,
	}

	d.logger.Debug("generating turn", "transcript_len", len(transcript))
	result, err := d.client.Generate(ctx, req)
	if err != nil {
		return "", fmt.Errorf("generate %s turn: %w", d.side, err)
	}
	return result.Text, nil
}

func (d *Debater) systemPrompt() string {
	stance := "in favor of"
	if d.side == SideCon {
		stance = "against"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are a skilled debater arguing %s the motion.\n\n", stance)
	fmt.Fprintf(&b, "Motion: %s\n", d.topic)
	if d.background != "" {
		fmt.Fprintf(&b, "Background: %s\n", d.background)
	}
	b.WriteString("\nMake your strongest case in a few tight paragraphs. " +
		"Engage your opponent's latest points directly before advancing new ones. " +
		"Stay in role and do not concede the debate.")
	return b.String()
}

// buildMessages maps the transcript into the chat exchange from this side's
// perspective. When the transcript is empty or opens with this side's own
// turn, a moderator instruction is prepended so the exchange always starts
// with a user message; the transcript always ends with the opponent's turn,
// so it already ends with a user message.
func (d *Debater) buildMessages(transcript []Turn) []provider.Message {
	msgs := make([]provider.Message, 0, len(transcript)+1)
	if len(transcript) == 0 || transcript[0].Side == d.side {
		msgs = append(msgs, provider.Message{
			Role:    provider.RoleUser,
			Content: "The floor is yours. Present your opening argument.",
		})
	}
	for _, turn := range transcript {
		role := provider.RoleUser
		if turn.Side == d.side {
			role = provider.RoleAssistant
		}
		msgs = append(msgs, provider.Message{Role: role, Content: turn.Text})
	}
	return msgs
}
