package tradesim

// Instrument is a tradable stock of the sandbox market.
type Instrument struct {
	Ticker        string  `json:"ticker"`
	Name          string  `json:"name"`
	Industry      string  `json:"industry"`
	Price         Money   `json:"price"`
	Change        Money   `json:"change"`
	ChangePercent Percent `json:"changePercent"`
}

// stock is a compact constructor for catalog entries.
func stock(ticker, name, industry string, price float64) Instrument {
	return Instrument{
		Ticker:   ticker,
		Name:     name,
		Industry: industry,
		Price:    INR(price),
		Change:   INR(0),
	}
}

// Catalog returns the seed catalog of the sandbox market: a fixed list of BSE
// listed companies with their opening price.
//
// Each call returns a fresh copy.
func Catalog() []Instrument {
	return []Instrument{
		stock("RELIANCE", "Reliance Industries Ltd.", "Conglomerate", 2950.50),
		stock("TCS", "Tata Consultancy Services Ltd.", "Information Technology", 3850.00),
		stock("HDFCBANK", "HDFC Bank Ltd.", "Banking", 1530.75),
		stock("INFY", "Infosys Ltd.", "Information Technology", 1475.20),
		stock("ICICIBANK", "ICICI Bank Ltd.", "Banking", 1120.40),
		stock("HINDUNILVR", "Hindustan Unilever Ltd.", "FMCG", 2380.90),
		stock("ITC", "ITC Ltd.", "FMCG", 428.35),
		stock("SBIN", "State Bank of India", "Banking", 815.60),
		stock("BHARTIARTL", "Bharti Airtel Ltd.", "Telecommunications", 1390.00),
		stock("LT", "Larsen & Toubro Ltd.", "Construction", 3560.25),
		stock("SUNPHARMA", "Sun Pharmaceutical Industries Ltd.", "Healthcare", 1510.10),
		stock("MARUTI", "Maruti Suzuki India Ltd.", "Automobile", 12450.00),
		stock("TATAMOTORS", "Tata Motors Ltd.", "Automobile", 985.45),
		stock("ASIANPAINT", "Asian Paints Ltd.", "Consumer Durables", 2870.30),
		stock("NTPC", "NTPC Ltd.", "Power", 358.70),
	}
}
