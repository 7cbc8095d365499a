package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	levelsCSV = `date,n
2015-01-01,12.10
2015-01-02,12.30
2015-01-04,
2016-06-01,11.80
`
	flowsCSV = `date,q
2015-01-01 00:00:00,45.0
2015-01-02 00:00:00,47.5
2016-06-01 00:00:00,NaN
2017-03-01 00:00:00,40.0
`
	predictionsCSV = `,indicator,h_cdt,n_gal,h_riv,q_pred,value,value_90
0,alpha,lc,9.5,9.0,120.0,10.0,20.0
1,alpha,mc,9.5,10.0,110.0,15.0,25.0
2,alpha,mc,10.0,10.0,100.0,20.0,30.0
3,alpha,hc,10.5,11.5,90.0,30.0,45.0
4,iota_ag,mc,9.5,10.0,110.0,5.0,8.0
`
)

func writeFixtures(t *testing.T, dir string) Files {
	t.Helper()
	files := Files{
		Levels:      filepath.Join(dir, "n_galerie.csv"),
		Flows:       filepath.Join(dir, "q_galerie.csv"),
		Predictions: filepath.Join(dir, "la_results.csv"),
	}
	require.NoError(t, os.WriteFile(files.Levels, []byte(levelsCSV), 0o600))
	require.NoError(t, os.WriteFile(files.Flows, []byte(flowsCSV), 0o600))
	require.NoError(t, os.WriteFile(files.Predictions, []byte(predictionsCSV), 0o600))
	return files
}
