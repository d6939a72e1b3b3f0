package dataset

// Raw column names as published in the PDDE disbursement workbook.
const (
	RawYear             = "NU_ANO"
	RawSchoolCode       = "CO_ENTIDADE"
	RawMunicipalityCode = "CO_MUNICIPIO"
	RawMunicipality     = "NO_MUNICIPIO"
	RawSchool           = "NO_ENTIDADE"
	RawFunding          = "VL_TOTAL"
	RawApproval         = "TX_APROVACAO"
	RawQuality          = "IDEB"
)

// Display labels used after cleaning.
const (
	ColYear             = "Ano"
	ColSchoolCode       = "Código da Escola"
	ColMunicipalityCode = "Código do Município"
	ColMunicipality     = "Município"
	ColSchool           = "Escola"
	ColFunding          = "Total do Repasse (R$)"
	ColApproval         = "Taxa de Aprovação (%)"
	ColQuality          = "IDEB"
)

// DefaultSheet is the workbook sheet holding the disbursement data.
const DefaultSheet = "PDDE"

var (
	// displayLabels maps raw column names to display labels.
	displayLabels = map[string]string{
		RawYear:             ColYear,
		RawSchoolCode:       ColSchoolCode,
		RawMunicipalityCode: ColMunicipalityCode,
		RawMunicipality:     ColMunicipality,
		RawSchool:           ColSchool,
		RawFunding:          ColFunding,
		RawApproval:         ColApproval,
		RawQuality:          ColQuality,
	}

	// renameOrder keeps renaming deterministic.
	renameOrder = []string{
		RawYear,
		RawSchoolCode,
		RawMunicipalityCode,
		RawMunicipality,
		RawSchool,
		RawFunding,
		RawApproval,
		RawQuality,
	}

	// NumericColumns are the display labels of the imputed indicator columns.
	NumericColumns = []string{ColFunding, ColApproval, ColQuality}

	numericRaw = map[string]string{
		ColFunding:  RawFunding,
		ColApproval: RawApproval,
		ColQuality:  RawQuality,
	}

	identifierRaw = map[string]string{
		ColYear:             RawYear,
		ColSchoolCode:       RawSchoolCode,
		ColMunicipalityCode: RawMunicipalityCode,
	}
)

// DisplayLabel returns the display label for a raw column name,
// or the name itself when it has no mapping.
func DisplayLabel(raw string) string {
	if l, ok := displayLabels[raw]; ok {
		return l
	}
	return raw
}
