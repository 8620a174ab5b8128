package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/utkarsh0306-glitch/MY-DISHA-BOT/internal/voice"
)

var memeLinks = []string{
	"https://i.imgflip.com/1bij.jpg",
	"https://i.imgflip.com/26am.jpg",
	"https://i.imgflip.com/30b1gx.jpg",
}

// routeCommand short-circuits the reply pipeline when the text starts with a
// recognized command. Commands bypass the eligibility gate and the cooldown;
// each is handled independently.
func (c *Controller) routeCommand(ctx context.Context, ev Event, text string) bool {
	low := strings.ToLower(text)
	switch {
	case strings.HasPrefix(low, "!reset"):
		c.sessions.Reset(ev.SenderID)
		c.typeAndSend(ctx, ev, "Thik hai, naya start! Aaj ka mood kya hai? 🙂")
	case strings.HasPrefix(low, "!hello"):
		c.typeAndSend(ctx, ev, "Heyy! Kaise ho? Aaj kuch interesting hua kya? ✨")
	case strings.HasPrefix(low, "!meme"):
		c.typeAndSend(ctx, ev, "Yeh lo ek meme—thoda smile aa gaya? Ab tum batao kuch funny hua? 😄")
		link := memeLinks[c.rng.Intn(len(memeLinks))]
		if err := c.sender.SendText(ctx, ev.ChannelID, link); err != nil {
			c.log.Warn("send_text_error", "channel_id", ev.ChannelID, "error", err.Error())
		}
	case strings.HasPrefix(low, "!joinvc"):
		c.cmdJoinVC(ctx, ev)
	case strings.HasPrefix(low, "!leavevc"):
		c.cmdLeaveVC(ctx, ev)
	case strings.HasPrefix(low, "!whoami"):
		c.typeAndSend(ctx, ev, fmt.Sprintf("Main Disha hoon, aur is instance ka ID %s hai. 😉", c.instanceID))
	case strings.HasPrefix(low, "!voice"):
		c.cmdVoicePreset(ctx, ev, text)
	default:
		return false
	}
	return true
}

func (c *Controller) cmdJoinVC(ctx context.Context, ev Event) {
	if ev.GuildID == "" || c.voice == nil {
		c.typeAndSend(ctx, ev, "Yeh sirf server ke voice channel me chalta hai, DM me nahi. 🙂")
		return
	}
	err := c.voice.Join(ctx, ev.GuildID, ev.SenderID)
	switch {
	case err == nil:
		c.typeAndSend(ctx, ev, "Join ho gayi! Jo bolungi, VC me sunai dega. 😊")
	case errors.Is(err, voice.ErrNotInVoice):
		c.typeAndSend(ctx, ev, "Pehle kisi voice channel me aa jao, phir main join karti hoon. 🙂")
	default:
		c.log.Warn("voice_join_error", "guild_id", ev.GuildID, "error", err.Error())
		c.typeAndSend(ctx, ev, "Voice channel join failed. Kya mujhe Connect/Speak permission mila hai?")
	}
}

func (c *Controller) cmdLeaveVC(ctx context.Context, ev Event) {
	if ev.GuildID == "" || c.voice == nil {
		return
	}
	if err := c.voice.Leave(ctx, ev.GuildID); err != nil {
		c.log.Warn("voice_leave_error", "guild_id", ev.GuildID, "error", err.Error())
	}
	c.typeAndSend(ctx, ev, "Theek hai, main VC se nikal gayi. ✨")
}

func (c *Controller) cmdVoicePreset(ctx context.Context, ev Event, text string) {
	if c.voice == nil {
		return
	}
	fields := strings.Fields(text)
	if len(fields) < 2 {
		c.typeAndSend(ctx, ev, "Kaunsi awaaz chahiye? Options: "+strings.Join(c.voice.PresetNames(), ", "))
		return
	}
	name := strings.ToLower(fields[1])
	if err := c.voice.SetPreset(name); err != nil {
		c.typeAndSend(ctx, ev, "Yeh awaaz nahi mili. Options: "+strings.Join(c.voice.PresetNames(), ", "))
		return
	}
	c.log.Info("voice_preset_set", "preset", name, "user_id", ev.SenderID)
	c.typeAndSend(ctx, ev, fmt.Sprintf("Done! Ab main %s waali awaaz me bolungi. 🎙️", name))
}
