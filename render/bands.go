package render

// Band is the half-open row range [Start, End) filled by one worker.
type Band struct {
	Start, End int
}

// Rows returns the number of rows in the band.
func (b Band) Rows() int {
	return b.End - b.Start
}

// Bands splits height rows into at most workers contiguous bands of nearly
// equal size. The first height%workers bands get one extra row and empty
// bands are omitted.
func Bands(height, workers int) []Band {
	if height <= 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}

	chunk := height / workers
	extra := height % workers
	bands := make([]Band, 0, min(workers, height))

	y := 0
	for i := 0; i < workers; i++ {
		rows := chunk
		if i < extra {
			rows++
		}
		if rows == 0 {
			continue
		}
		bands = append(bands, Band{Start: y, End: y + rows})
		y += rows
	}

	return bands
}
