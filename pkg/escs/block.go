package escs

// Block is a maximal contiguous run of on-intervals in a schedule, possibly
// holding several jobs back to back with no idle gap between them.
type Block struct {
	Start      int
	Completion int
}

// Length returns Completion - Start.
func (b Block) Length() int {
	return b.Completion - b.Start
}

// ProcBlocksFromStartTimes merges a sequence of (start, processing-time)
// positions, beginning at fromPosition, into the maximal contiguous blocks
// they form. A position opens a new block unless its start falls at or
// before the completion of the block built so far, in which case the block
// is extended. The result is disjoint and strictly increasing in Start.
func ProcBlocksFromStartTimes(startTimes, procTimes []int, fromPosition int) []Block {
	var blocks []Block
	for i := fromPosition; i < len(startTimes); i++ {
		start := startTimes[i]
		completion := start + procTimes[i]
		if len(blocks) == 0 || start > blocks[len(blocks)-1].Completion {
			blocks = append(blocks, Block{Start: start, Completion: completion})
			continue
		}
		last := &blocks[len(blocks)-1]
		if completion > last.Completion {
			last.Completion = completion
		}
	}
	return blocks
}

// ProcBlocks reconstructs the FPCC's current optimal start times and merges
// the positions from fromPosition onward into blocks. It is an internal
// invariant violation to call this when the FPCC has no valid cost.
func ProcBlocks(f *FPCC, fromPosition int) ([]Block, error) {
	startTimes, err := f.ReconstructStartTimes()
	if err != nil {
		return nil, err
	}
	return ProcBlocksFromStartTimes(startTimes, f.permProcTimes, fromPosition), nil
}
