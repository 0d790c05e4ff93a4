// internal/common/prompt/builtin.go
package prompt

import (
	"fmt"
	"sort"
)

const (
	TweetSummary       = "tweet-summary"
	Web3MarketAnalysis = "web3-market-analysis"

	// PlaceholderRecordText is bound to the text of the record being transformed.
	PlaceholderRecordText = "tweet_text"
	// PlaceholderOnChainData is bound to the market context of an analysis.
	PlaceholderOnChainData = "on_chain_data"
)

var builtins = map[string]string{
	TweetSummary: `You are an assistant that helps users analyze and summarize text.
Summarize the key points of the following tweet and give a short summary:

Tweet content: {tweet_text}

Short summary: `,

	Web3MarketAnalysis: `You are an intelligent assistant focused on Web3 and crypto market trends.
Analyze the following tweet content and, based on on-chain data (such as trading volume and token prices), provide the following information:

1. Key Web3 trends or topics mentioned in the tweet.
2. The potential market dynamics behind the tweet.
3. If a specific crypto asset is mentioned, the market data for that asset (price, trading volume, percentage change).
4. Market insights and trading advice based on the analysis, for example whether to hold, sell or buy.
5. If there is a trading opportunity, execution advice.

Tweet content: {tweet_text}

On-chain data: {on_chain_data}

Output:
1. Key Web3 trends or topics:
2. Market dynamics analysis:
3. Crypto asset market data:
4. Trading advice:
5. Execution advice (if any):
`,
}

// Builtin returns the named built-in template.
func Builtin(name string) (*Template, error) {
	text, ok := builtins[name]
	if !ok {
		return nil, fmt.Errorf("unknown template %q (available: %v)", name, BuiltinNames())
	}
	return Parse(text)
}

// Resolve returns the built-in called nameOrText, or parses nameOrText as a template.
func Resolve(nameOrText string) (*Template, error) {
	if _, ok := builtins[nameOrText]; ok {
		return Builtin(nameOrText)
	}
	return Parse(nameOrText)
}

func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
