package rdb

// mipDimension calculates the dimension of a mipmap level.
func mipDimension(base, level int) int {
	result := base >> level
	if result < 1 {
		return 1
	}

	return result
}

// levelsPresent returns how many whole mip levels, largest first, fit in
// dataLen bytes, capped at maxLevels.
func levelsPresent(format PixelFormat, width, height, maxLevels, dataLen int) int {
	levels := 0
	offset := 0
	for level := 0; level < maxLevels; level++ {
		size := expectedDataLength(format.bcn(), mipDimension(width, level), mipDimension(height, level))
		if size <= 0 || offset+size > dataLen {
			break
		}
		offset += size
		levels++
	}

	return levels
}
