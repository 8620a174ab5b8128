package main

import "github.com/spf13/viper"

func initViperDefaults() {
	viper.SetDefault("llm.provider", "gemini")
	viper.SetDefault("llm.model", "gemini-2.0-flash")
	viper.SetDefault("llm.request_timeout", "30s")
	viper.SetDefault("llm.max_output_tokens", 120)
	viper.SetDefault("llm.temperature", 0.85)
	viper.SetDefault("llm.top_p", 0.85)

	viper.SetDefault("shape.max_chars", 330)

	viper.SetDefault("reply.cooldown", "3500ms")
	viper.SetDefault("reply.follow_window", "2m")
	viper.SetDefault("reply.filler_rate", 0.35)
	viper.SetDefault("reply.force_question", false)
	viper.SetDefault("reply.max_user_chars", 600)

	viper.SetDefault("session.max_turns", 18)

	viper.SetDefault("dedup.capacity", 10000)

	viper.SetDefault("tts.enabled", true)
	viper.SetDefault("tts.preset", "swara")
	viper.SetDefault("tts.name_callout", true)

	viper.SetDefault("keepalive.enabled", true)
	viper.SetDefault("keepalive.addr", ":8080")
}
