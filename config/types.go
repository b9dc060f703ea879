// @license
// Copyright (C) 2025  Dinko Korunic
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package config

import "time"

// Mash struct holds e-school diary access configuration.
type Mash struct {
	Token     string        `toml:"token"`
	ProfileID string        `toml:"profile_id"`
	BaseURL   string        `toml:"base_url"`
	Timeout   time.Duration `toml:"timeout"`
}

// Telegram struct holds Telegram messenger configuration.
type Telegram struct {
	Token   string   `toml:"token"`
	ChatIDs []string `toml:"chatids"`
}

// Discord struct holds Discord messenger configuration.
type Discord struct {
	Token   string   `toml:"token"`
	UserIDs []string `toml:"userids"`
}

// Slack struct holds Slack messenger configuration.
type Slack struct {
	Token   string   `toml:"token"`
	ChatIDs []string `toml:"chatids"`
}

// Mail struct hold e-Mail messenger configuration.
type Mail struct {
	Server   string   `toml:"server"`
	Port     string   `toml:"port"`
	Username string   `toml:"username"`
	Password string   `toml:"password"`
	From     string   `toml:"from"`
	Subject  string   `toml:"subject"`
	To       []string `toml:"to"`
}

// Calendar struct hold Google Calendar configuration.
type Calendar struct {
	Name string `toml:"name"`
}

// TomlConfig struct holds all other configuration structures.
type TomlConfig struct {
	Mash            Mash     `toml:"mash"`
	Calendar        Calendar `toml:"calendar"`
	Mail            Mail     `toml:"mail"`
	Telegram        Telegram `toml:"telegram"`
	Discord         Discord  `toml:"discord"`
	Slack           Slack    `toml:"slack"`
	TelegramEnabled bool     `toml:"-"`
	DiscordEnabled  bool     `toml:"-"`
	SlackEnabled    bool     `toml:"-"`
	MailEnabled     bool     `toml:"-"`
	CalendarEnabled bool     `toml:"-"`
}

// MessengersEnabled reports whether at least one messenger is configured.
func (c TomlConfig) MessengersEnabled() bool {
	return c.TelegramEnabled || c.DiscordEnabled || c.SlackEnabled || c.MailEnabled || c.CalendarEnabled
}
