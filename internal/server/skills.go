package server

import (
	"time"

	"github.com/annel0/arena-game/internal/arena"
)

const (
	// StrikeDamage урон удара по соседней клетке
	StrikeDamage = 10
	// SpellLifetime время жизни видимого следа заклинания
	SpellLifetime = 200 * time.Millisecond
)

func init() {
	arena.RegisterSkill(arena.StrikeSkill, strike)
}

// strike бьёт все живые сущности в клетке перед заклинателем и оставляет
// на ней след заклинания
func strike(ctx *arena.CastContext) {
	target := ctx.Target()
	for _, entity := range ctx.Arena.Entities() {
		if entity.ID() == ctx.Caster.ID() || !entity.IsAlive() || entity.Position() != target {
			continue
		}
		entity.AddHealth(-StrikeDamage)
	}
	ctx.SpawnSpell(target)
}

// expireSpells удаляет следы заклинаний старше SpellLifetime
func expireSpells(a *arena.Arena, now time.Time) {
	for _, spell := range a.Spells() {
		if now.Sub(spell.CreatedAt) >= SpellLifetime {
			a.RemoveSpell(spell.ID)
		}
	}
}
