// @license
// Copyright (C) 2022  Dinko Korunic
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

import (
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/dkorunic/mash-homework/logger"
)

var (
	ErrNoToken             = errors.New("configuration error: no diary access token defined")
	ErrInvalidToken        = errors.New("configuration error: diary access token is not valid")
	ErrNoProfileID         = errors.New("configuration error: no profile ID defined")
	ErrInvalidProfileID    = errors.New("configuration error: profile ID is not valid")
	ErrNegativeTimeout     = errors.New("configuration error: negative timeout")
	ErrNoMailTo            = errors.New("configuration error: no e-Mail to addresses defined")
	ErrInvalidMailTo       = errors.New("configuration error: e-Mail to is not in e-Mail format")
	ErrInvalidSlackToken   = errors.New("configuration error: Slack token is not valid")
	ErrNoSlackChatIDs      = errors.New("configuration error: Slack chat IDs not defined")
	ErrInvalidSlackChatID  = errors.New("configuration error: Slack chat ID is not valid")
	ErrInvalidTgToken      = errors.New("configuration error: Telegram token is not valid")
	ErrNoTgChatIDs         = errors.New("configuration error: Telegram chat IDs not defined")
	ErrInvalidTgChatID     = errors.New("configuration error: Telegram chat ID is not valid")
	ErrInvalidDiscordToken = errors.New("configuration error: Discord token is not valid")
	ErrNoDiscordUserIDs    = errors.New("configuration error: Discord User IDs not defined")
	ErrInvalidDiscordID    = errors.New("configuration error: Discord User ID is not valid")
)

// LoadConfig attempts to load and decode configuration file in TOML format, doing a minimal sanity checking of
// messenger blocks and optionally returning an error. Diary credentials are checked separately with
// CheckCredentials, as they can also be set from flags or environment.
func LoadConfig(file string) (TomlConfig, error) {
	var config TomlConfig
	if _, err := toml.DecodeFile(file, &config); err != nil {
		return config, err
	}

	if err := config.checkMessengers(); err != nil {
		return config, err
	}

	return config, nil
}

// SetCredentials overrides diary token and profile ID when the given values are not empty.
func (c *TomlConfig) SetCredentials(token, profileID string) {
	if token != "" {
		c.Mash.Token = token
	}

	if profileID != "" {
		c.Mash.ProfileID = profileID
	}
}

// CheckCredentials does a minimal sanity check on the diary access block, ensuring that:
//
// 1. the token is defined and contains no whitespace
//
// 2. the profile ID is defined and numeric
//
// 3. the timeout is not negative.
func (c TomlConfig) CheckCredentials() error {
	switch {
	case c.Mash.Token == "":
		return ErrNoToken
	case !isValidToken(c.Mash.Token):
		return ErrInvalidToken
	case c.Mash.ProfileID == "":
		return ErrNoProfileID
	case !isValidID(c.Mash.ProfileID):
		return fmt.Errorf("%w: %q", ErrInvalidProfileID, c.Mash.ProfileID)
	case c.Mash.Timeout < 0:
		return ErrNegativeTimeout
	}

	return nil
}

// checkMessengers runs the sanity checks of all messenger blocks, enabling the ones which are configured.
func (c *TomlConfig) checkMessengers() error {
	for _, check := range []func() error{
		c.checkDiscordConf,
		c.checkTelegramConf,
		c.checkSlackConf,
		c.checkMailConf,
		c.checkCalendarConf,
	} {
		if err := check(); err != nil {
			return err
		}
	}

	return nil
}

// checkCalendarConf enables Google Calendar integration when the calendar name is not empty.
func (c *TomlConfig) checkCalendarConf() error {
	if c.Calendar.Name != "" {
		logger.Info().Msg("Configuration: Google Calendar integration enabled (pending OAuth during initialization)")

		c.CalendarEnabled = true
	}

	return nil
}

// checkMailConf does a minimal sanity check on the e-Mail configuration block, ensuring that:
//
// 1. the e-Mail server is not empty
//
// 2. all destination e-Mail addresses (TO) are valid
//
// If all conditions are met, e-Mail messenger gets enabled.
func (c *TomlConfig) checkMailConf() error {
	if c.Mail.Server == "" {
		return nil
	}

	if len(c.Mail.To) == 0 {
		return ErrNoMailTo
	}

	// no need to check e-Mail FROM since it can be anything
	for _, t := range c.Mail.To {
		if !isValidMail(t) {
			return fmt.Errorf("%w: %q", ErrInvalidMailTo, t)
		}
	}

	logger.Info().Msg("Configuration: e-Mail messenger enabled")

	c.MailEnabled = true

	return nil
}

// checkSlackConf does a minimal sanity check on the Slack configuration block, ensuring that:
//
// 1. the Slack token is defined and valid
//
// 2. the chat IDs are defined and all valid
//
// If all conditions are met, Slack messenger gets enabled.
func (c *TomlConfig) checkSlackConf() error {
	if c.Slack.Token == "" {
		return nil
	}

	if !isValidSlackToken(c.Slack.Token) {
		return ErrInvalidSlackToken
	}

	if len(c.Slack.ChatIDs) == 0 {
		return ErrNoSlackChatIDs
	}

	for _, id := range c.Slack.ChatIDs {
		if !isValidSlackChatID(id) {
			return fmt.Errorf("%w: %q", ErrInvalidSlackChatID, id)
		}
	}

	logger.Info().Msg("Configuration: Slack messenger enabled")

	c.SlackEnabled = true

	return nil
}

// checkTelegramConf performs a minimal sanity check on the Telegram configuration block, ensuring that:
//
// 1. the Telegram token is defined and valid
//
// 2. the chat IDs are defined and all valid
//
// If all conditions are met, Telegram messenger gets enabled.
func (c *TomlConfig) checkTelegramConf() error {
	if c.Telegram.Token == "" {
		return nil
	}

	if !isValidTelegramToken(c.Telegram.Token) {
		return ErrInvalidTgToken
	}

	if len(c.Telegram.ChatIDs) == 0 {
		return ErrNoTgChatIDs
	}

	for _, id := range c.Telegram.ChatIDs {
		if !isValidTelegramChatID(id) {
			return fmt.Errorf("%w: %q", ErrInvalidTgChatID, id)
		}
	}

	logger.Info().Msg("Configuration: Telegram messenger enabled")

	c.TelegramEnabled = true

	return nil
}

// checkDiscordConf performs a minimal sanity check on the Discord configuration block, ensuring that:
//
// 1. the Discord token is defined and valid
//
// 2. the User IDs are defined and all valid
//
// If all conditions are met, Discord messenger gets enabled.
func (c *TomlConfig) checkDiscordConf() error {
	if c.Discord.Token == "" {
		return nil
	}

	if !isValidDiscordToken(c.Discord.Token) {
		return ErrInvalidDiscordToken
	}

	if len(c.Discord.UserIDs) == 0 {
		return ErrNoDiscordUserIDs
	}

	for _, id := range c.Discord.UserIDs {
		if !isValidID(id) {
			return fmt.Errorf("%w: %q", ErrInvalidDiscordID, id)
		}
	}

	logger.Info().Msg("Configuration: Discord messenger enabled")

	c.DiscordEnabled = true

	return nil
}
