package presenter

import (
	"MarketDesk/internal/domain/models"
)

// PredictionCard is the formatted view of one prediction.
type PredictionCard struct {
	SignalDate string `json:"signal_date"`
	TradeDate  string `json:"trade_date"`
	SpotClose  string `json:"spot_close"`

	PredictedVolatility string `json:"predicted_volatility"`
	IndiaVix            string `json:"india_vix"`

	BullProbability string `json:"bull_probability"`
	BearProbability string `json:"bear_probability"`
	// Bar widths in percent, unclamped and unrounded.
	BullBar float64 `json:"bull_bar"`
	BearBar float64 `json:"bear_bar"`

	VolRegime       string `json:"vol_regime"`
	RisingVol       bool   `json:"rising_vol"`
	DirectionRegime string `json:"direction_regime"`
	Bearish         bool   `json:"bearish"`

	Strategy   string       `json:"strategy"`
	ExpiryType string       `json:"expiry_type"`
	ExpiryDate string       `json:"expiry_date"`
	Strikes    []StrikeLine `json:"strikes"`
}

type StrikeLine struct {
	Action string `json:"action"`
	Strike string `json:"strike"`
}

// Card formats pr. The direction regime is shown verbatim; the other labels
// go through Label.
func (p *Presenter) Card(pr *models.PredictionResult) *PredictionCard {
	if pr == nil {
		return nil
	}
	card := &PredictionCard{
		SignalDate:          pr.SignalDate,
		TradeDate:           pr.TradeDate,
		SpotClose:           rupee + p.grouped(pr.SpotClose),
		PredictedVolatility: percent(pr.PredictedVolatility, 2),
		IndiaVix:            pr.IndiaVix.String(),
		BullProbability:     percent(pr.BullProbability, 0),
		BearProbability:     percent(pr.BearProbability, 0),
		BullBar:             pr.BullProbability * 100,
		BearBar:             pr.BearProbability * 100,
		VolRegime:           Label(pr.VolRegime),
		RisingVol:           pr.RisingVol(),
		DirectionRegime:     pr.DirectionRegime,
		Bearish:             pr.Bearish(),
		Strategy:            Label(pr.Strategy),
		ExpiryType:          pr.Expiry.Type,
		ExpiryDate:          pr.Expiry.Date,
		Strikes:             make([]StrikeLine, 0, len(pr.Strikes)),
	}
	for _, st := range pr.Strikes {
		card.Strikes = append(card.Strikes, StrikeLine{
			Action: Label(st.Action),
			Strike: rupee + st.Price.String(),
		})
	}
	return card
}
