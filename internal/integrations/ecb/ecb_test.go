package ecb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<gesmes:Envelope xmlns:gesmes="http://www.gesmes.org/xml/2002-08-01" xmlns="http://www.ecb.int/vocabulary/2002-08-01/eurofxref">
	<gesmes:subject>Reference rates</gesmes:subject>
	<Cube>
		<Cube time="2026-08-28">
			<Cube currency="USD" rate="1.0842"/>
			<Cube currency="JPY" rate="162.55"/>
			<Cube currency="GBP" rate="0.8431"/>
		</Cube>
	</Cube>
</gesmes:Envelope>`

func TestParseDailyFeed(t *testing.T) {
	rates, err := ParseDailyFeed([]byte(sampleFeed))
	require.NoError(t, err)

	assert.Len(t, rates, 3)
	assert.Equal(t, 1.0842, rates["USD"])
	assert.Equal(t, 162.55, rates["JPY"])
	assert.Equal(t, 0.8431, rates["GBP"])
}

func TestParseDailyFeedEmpty(t *testing.T) {
	_, err := ParseDailyFeed([]byte(`<?xml version="1.0"?><Envelope><Cube/></Envelope>`))
	require.Error(t, err)
}

func TestParseDailyFeedMalformedRate(t *testing.T) {
	feed := `<?xml version="1.0"?><Envelope><Cube><Cube currency="USD" rate="n/a"/></Cube></Envelope>`
	_, err := ParseDailyFeed([]byte(feed))
	require.Error(t, err)
}

func TestParseDailyFeedNotXML(t *testing.T) {
	_, err := ParseDailyFeed([]byte(`{"rates": {}}`))
	require.Error(t, err)
}
