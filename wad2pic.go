package wad2pic

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// mergeLevel overlays non-empty geometry lists from a patch WAD over the
// base game's. A patch WAD replaces whole lumps, never single records, so
// the merge is list-by-list.
func mergeLevel(base, patch *Level) {
	if len(patch.Vertexes) > 0 {
		base.Vertexes = patch.Vertexes
	}
	if len(patch.LineDefs) > 0 {
		base.LineDefs = patch.LineDefs
	}
	if len(patch.SideDefs) > 0 {
		base.SideDefs = patch.SideDefs
	}
	if len(patch.Sectors) > 0 {
		base.Sectors = patch.Sectors
	}
	if len(patch.Things) > 0 {
		base.Things = patch.Things
	}
}

func baseName(path string) string {
	return filepath.Base(path)
}

// GenerateMap renders one level to a PNG file. iwadPath is the base game
// WAD; pwadPath, when non-empty, is a patch WAD or PK3 whose lumps
// override the base game's. The output file name is taken from the
// options, falling back to "<wad>-<map>.png".
func GenerateMap(iwadPath, mapName, pwadPath string, opts Options) error {
	stats := MapStats{}
	cache := paletteCache{}

	iData, err := OpenContainer(iwadPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", iwadPath, err)
	}
	defer iData.Close()
	iData.SetMap(mapName)

	level := ReadLevel(iData, false)
	pal, palOK := readPalette(iData)
	colorMaps, cmOK := readColorMaps(iData)

	var pData Container
	if pwadPath != "" {
		pData, err = OpenContainer(pwadPath)
		if err != nil {
			return fmt.Errorf("open %s: %w", pwadPath, err)
		}
		defer pData.Close()
		pData.SetMap(mapName)

		mergeLevel(level, ReadLevel(pData, opts.ZStyle))
		if p, ok := readPalette(pData); ok {
			pal, palOK = p, true
		}
		if cm, ok := readColorMaps(pData); ok {
			colorMaps, cmOK = cm, true
		}
	}

	if !iData.MapFound() && (pData == nil || !pData.MapFound()) {
		return fmt.Errorf("map %s not found", mapName)
	}
	if !palOK || !cmOK {
		return fmt.Errorf("missing PLAYPAL or COLORMAP lump")
	}
	logger.Printf("Geometry: %v vrt, %v lnd, %v sdf, %v sct, %v thn",
		len(level.Vertexes), len(level.LineDefs), len(level.SideDefs),
		len(level.Sectors), len(level.Things))

	applyTransforms(level, opts)
	checkSectors(level)
	walls := genWalls(level, opts)

	// floor textures, patch WAD's overriding
	flatNames := getFlatList(level.Sectors)
	flats := getFlats(iData, flatNames, pal, cache)
	if pData != nil {
		for name, flat := range getFlats(pData, flatNames, pal, cache) {
			flats[name] = flat
		}
	}

	// patches, the building blocks of wall textures
	patchNames := getPatchNames(optionalLump(iData, "PNAMES"))
	patches := getPictures(iData, patchNames, pal, cache)
	if pData != nil {
		// no PNAMES in the patch WAD still allows redefined patch lumps
		patchNamesP := getPatchNames(optionalLump(pData, "PNAMES"))
		if len(patchNamesP) == 0 {
			patchNamesP = patchNames
		}
		for name, img := range getPictures(pData, patchNamesP, pal, cache) {
			patches[name] = img
		}
		patchNames = patchNamesP
	}

	// composed wall textures
	infos := append(getTextureInfo(optionalLump(iData, "TEXTURE1")),
		getTextureInfo(optionalLump(iData, "TEXTURE2"))...)
	textures := getTextures(infos, patches, patchNames)
	if pData != nil {
		infosP := append(getTextureInfo(optionalLump(pData, "TEXTURE1")),
			getTextureInfo(optionalLump(pData, "TEXTURE2"))...)
		if len(infosP) > 0 {
			for name, img := range getTextures(infosP, patches, patchNames) {
				textures[name] = img
			}
		}
		// walls may also name plain picture lumps as textures
		for name, img := range getPictures(pData, getTextureList(walls), pal, cache) {
			textures[name] = img
		}
	}

	// sprite lookup needs the union of both containers' lump names
	allNames := make(map[string]struct{})
	for name := range iData.Names() {
		allNames[name] = struct{}{}
	}
	if pData != nil {
		for name := range pData.Names() {
			allNames[name] = struct{}{}
		}
	}

	thingsList, spriteList := parseThings(level, allNames, opts, stats)
	sprites := getPictures(iData, spriteList, pal, cache)
	if pData != nil {
		for name, img := range getPictures(pData, spriteList, pal, cache) {
			sprites[name] = img
		}
	}

	if opts.Shrink != 1 {
		massResize(sprites, opts.Shrink, pal, cache)
		massResize(textures, opts.Shrink, pal, cache)
		massResizeFlats(flats, opts.Shrink, pal, cache)
	}

	conv := newColorConversion(pal, colorMaps)
	logger.Printf("Assets: %v flt, %v pch, %v txt, %v wls, %v thg, %v spr",
		len(flats), len(patches), len(textures), len(walls),
		len(thingsList), len(sprites))

	img := drawMap(level, flats, walls, textures, thingsList, sprites, conv, opts)

	if opts.Gamma != 1 {
		gammaCorrect(img, opts.Gamma)
	}

	stats["01iWAD"] = baseName(iwadPath)
	wadName := baseName(iwadPath)
	if pwadPath != "" {
		stats["02pWAD"] = baseName(pwadPath)
		wadName = baseName(pwadPath)
	}
	stats["03Map"] = mapName
	stats["11Vertexes"] = len(level.Vertexes)
	stats["12Linedefs"] = len(level.LineDefs)
	stats["13Sidedefs"] = len(level.SideDefs)
	stats["14Sectors"] = len(level.Sectors)
	stats["15Things"] = len(level.Things)

	var titlePic *image.NRGBA
	if lump, ok := iData.Lump("TITLEPIC"); ok {
		titlePic = getPicture(lump, pal, cache)
	}
	if pData != nil {
		if lump, ok := pData.Lump("TITLEPIC"); ok {
			if img := getPicture(lump, pal, cache); img != nil {
				titlePic = img
			}
		}
	}

	if !opts.HideInfo {
		drawStats(img, titlePic, stats)
	}

	output := opts.Output
	if output == "" {
		output = strings.SplitN(wadName, ".", 2)[0] + "-" + mapName + ".png"
	}
	return savePNG(output, img)
}

func savePNG(path string, img *image.NRGBA) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// allMapNames is every vanilla episode/map slot; used when the map name is
// "ALL" or empty.
func allMapNames() []string {
	var names []string
	for e := 1; e <= 4; e++ {
		for m := 1; m <= 9; m++ {
			names = append(names, fmt.Sprintf("E%dM%d", e, m))
		}
	}
	for m := 1; m <= 32; m++ {
		names = append(names, fmt.Sprintf("MAP%02d", m))
	}
	return names
}

// Run renders one map, or every possible map when mapName is empty or
// "ALL". Maps render concurrently on opts.Workers goroutines; a panic
// while rendering one map is logged and does not stop the batch, unless
// Debug is set, in which case it propagates.
func Run(iwadPath, mapName, pwadPath string, opts Options) {
	names := []string{mapName}
	if mapName == "" || strings.EqualFold(mapName, "ALL") {
		names = allMapNames()
	}

	generate := func(name string) {
		if !opts.Debug {
			defer func() {
				if r := recover(); r != nil {
					logger.Printf("Err: generating %s %s: %v", iwadPath, name, r)
				}
			}()
		}
		if err := GenerateMap(iwadPath, name, pwadPath, opts); err != nil {
			logger.Printf("Err: %s %s: %v", iwadPath, name, err)
			return
		}
		logger.Printf("Generated map: %s %s %s", iwadPath, name, pwadPath)
	}

	workers := max(opts.Workers, 1)
	jobs := make(chan string)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for name := range jobs {
				generate(name)
			}
		}()
	}
	for _, name := range names {
		jobs <- name
	}
	close(jobs)
	wg.Wait()
}
