package chance

import "github.com/pable/go-match-sim/internal/model"

type roleBuffs struct {
	duel  float64
	trade float64
}

// Win and select buffs share the same values.
var buffTable = map[model.Role]roleBuffs{
	model.RoleDuelist:    {duel: 0.25, trade: 0.10},
	model.RoleController: {duel: 0.05, trade: 0.15},
	model.RoleFlex:       {duel: 0.15, trade: 0.35},
	model.RoleInitiator:  {duel: 0.35, trade: 0.20},
	model.RoleIGL:        {duel: 0.07, trade: 0.25},
	model.RoleSentinel:   {duel: 0.01, trade: 0.35},
}

// DuelWinBuff is the multiplicative bonus applied to a regular duel's chance.
func DuelWinBuff(r model.Role) float64 { return buffTable[r].duel }

// TradeWinBuff is the multiplicative bonus applied to a trade duel's chance.
func TradeWinBuff(r model.Role) float64 { return buffTable[r].trade }

// DuelSelectBuff weights how likely a player is picked for a regular duel.
func DuelSelectBuff(r model.Role) float64 { return buffTable[r].duel }

// TradeSelectBuff weights how likely a player is picked for a trade duel,
// and raises the chance that their kill opens a trade chain.
func TradeSelectBuff(r model.Role) float64 { return buffTable[r].trade }

// SelectBuff returns the trade or duel select buff.
func SelectBuff(r model.Role, isTrade bool) float64 {
	if isTrade {
		return TradeSelectBuff(r)
	}
	return DuelSelectBuff(r)
}

// WinBuff returns the trade or duel win buff.
func WinBuff(r model.Role, isTrade bool) float64 {
	if isTrade {
		return TradeWinBuff(r)
	}
	return DuelWinBuff(r)
}
