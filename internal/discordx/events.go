// Package discordx adapts the gateway's message types to the dispatch
// pipeline and implements its outbound Sender on top of the REST API.
package discordx

import (
	"github.com/bwmarrin/discordgo"
	"github.com/utkarsh0306-glitch/MY-DISHA-BOT/internal/dispatch"
)

// FromMessageCreate lifts a gateway message into a transport-neutral event.
// selfID is the bot's own user ID.
func FromMessageCreate(m *discordgo.MessageCreate, selfID string) dispatch.Event {
	if m == nil || m.Author == nil {
		return dispatch.Event{}
	}
	return dispatch.Event{
		ID:                m.ID,
		SenderID:          m.Author.ID,
		SenderDisplayName: displayName(m),
		SenderIsSelf:      m.Author.ID == selfID,
		Text:              m.Content,
		ChannelID:         m.ChannelID,
		GuildID:           m.GuildID,
		IsDirect:          m.GuildID == "",
		MentionsSelf:      mentionsUser(m, selfID),
		IsReplyToSelf:     isReplyTo(m, selfID),
	}
}

func displayName(m *discordgo.MessageCreate) string {
	if m.Member != nil && m.Member.Nick != "" {
		return m.Member.Nick
	}
	if m.Author.GlobalName != "" {
		return m.Author.GlobalName
	}
	return m.Author.Username
}

func mentionsUser(m *discordgo.MessageCreate, userID string) bool {
	for _, u := range m.Mentions {
		if u != nil && u.ID == userID {
			return true
		}
	}
	return false
}

func isReplyTo(m *discordgo.MessageCreate, userID string) bool {
	ref := m.ReferencedMessage
	return ref != nil && ref.Author != nil && ref.Author.ID == userID
}
