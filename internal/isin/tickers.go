package isin

// builtinTickers lists the UCITS funds commonly bought through the broker,
// keyed by ISIN, with the exchange suffix of the listing the host tracks.
var builtinTickers = map[string]string{
	"IE00BFMXXD54": "VUAA.DE",      // Vanguard S&P 500 UCITS ETF (USD) Accumulating
	"IE00BK5BQT80": "VWCE.DE",      // Vanguard FTSE All-World UCITS ETF (USD) Accumulating
	"IE00B5BMR087": "SXR8.DE",      // iShares Core S&P 500 UCITS ETF (Acc)
	"IE00B4L5Y983": "EUNL.DE",      // iShares Core MSCI World UCITS ETF (Acc)
	"IE00BKM4GZ66": "IS3N.DE",      // iShares Core MSCI EM IMI UCITS ETF (Acc)
	"IE00B3RBWM25": "VWRL.L",       // Vanguard FTSE All-World UCITS ETF (USD) Distributing
	"IE00B3XXRP09": "VUSA.L",       // Vanguard S&P 500 UCITS ETF (USD) Distributing
	"IE00BYX2JD69": "SXRV.DE",      // iShares NASDAQ 100 UCITS ETF (Acc)
	"IE00B53SZB19": "CNDX.L",       // iShares NASDAQ 100 UCITS ETF (Acc), London listing
	"LU0908500753": "MEUD.PA",      // Amundi Core Stoxx Europe 600 UCITS ETF Acc
	"IE00BF4RFH31": "IUSN.DE",      // iShares MSCI World Small Cap UCITS ETF
	"IE00BKX55T58": "VGWL.DE",      // Vanguard FTSE Developed World UCITS ETF
	"IE00B4ND3602": "PPFB.DE",      // iShares Physical Gold ETC
	"PLBETF500014": "ETFBS80TR.WA", // Beta ETF S&P 500
}
