package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectivelyActive(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	active := PremiumGrant{Status: StatusActive, CurrentPeriodEnd: now.Add(time.Hour)}
	assert.True(t, active.EffectivelyActive(now))

	trialing := PremiumGrant{Status: StatusTrialing, CurrentPeriodEnd: now.Add(time.Hour)}
	assert.True(t, trialing.EffectivelyActive(now))

	expired := PremiumGrant{Status: StatusActive, CurrentPeriodEnd: now.Add(-time.Second)}
	assert.False(t, expired.EffectivelyActive(now))

	canceled := PremiumGrant{Status: StatusCanceled, CurrentPeriodEnd: now.Add(time.Hour)}
	assert.False(t, canceled.EffectivelyActive(now))

	// Period end exactly now still counts.
	boundary := PremiumGrant{Status: StatusActive, CurrentPeriodEnd: now}
	assert.True(t, boundary.EffectivelyActive(now))
}

func TestUsesPremiumFeatures(t *testing.T) {
	plain := Template{Content: "hi"}
	assert.False(t, plain.UsesPremiumFeatures())

	oneEmbed := Template{Embeds: []EmbedSpec{{Title: "a"}}}
	assert.False(t, oneEmbed.UsesPremiumFeatures())

	twoEmbeds := Template{Embeds: []EmbedSpec{{}, {}}}
	assert.True(t, twoEmbeds.UsesPremiumFeatures())

	withComponents := Template{Components: []ComponentRow{{}}}
	assert.True(t, withComponents.UsesPremiumFeatures())
}
