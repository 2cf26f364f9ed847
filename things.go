package wad2pic

import (
	"strconv"
	"strings"
)

// spriteMap maps a thing type ID to its sprite name prefix. This mapping is
// not stored in any lump; it comes from the Unofficial Doom Specs (with the
// TGRN typo fixed). Four-letter prefixes are live objects, five-letter ones
// are dead bodies whose frame letter is part of the name.
var spriteMap = map[int]string{
	// player
	1: "PLAY",
	// monsters
	3004: "POSS", 84: "SSWV", 9: "SPOS", 65: "CPOS", 3001: "TROO",
	3002: "SARG", 58: "SARG", 3006: "SKUL", 3005: "HEAD", 69: "BOS2",
	3003: "BOSS", 68: "BSPI", 71: "PAIN", 66: "SKEL", 67: "FATT",
	64: "VILE", 7: "SPID", 16: "CYBR", 88: "BBRN",
	// weapons and ammo
	2005: "CSAW", 2001: "SHOT", 82: "SGN2", 2002: "MGUN", 2003: "LAUN",
	2004: "PLAS", 2006: "BFUG", 2007: "CLIP", 2008: "SHEL", 2010: "ROCK",
	2047: "CELL", 2048: "AMMO", 2049: "SBOX", 2046: "BROK", 17: "CELP",
	8: "BPAK",
	// pickups
	2011: "STIM", 2012: "MEDI", 2014: "BON1", 2015: "BON2", 2018: "ARM1",
	2019: "ARM2", 83: "MEGA", 2013: "SOUL", 2022: "PINV", 2023: "PSTR",
	2024: "PINS", 2025: "SUIT", 2026: "PMAP", 2045: "PVIS", 5: "BKEY",
	40: "BSKU", 13: "RKEY", 38: "RSKU", 6: "YKEY", 39: "YSKU",
	// objects and decoration
	2035: "BAR1", 72: "KEEN", 48: "ELEC", 30: "COL1", 32: "COL3",
	31: "COL2", 36: "COL5", 33: "COL4", 37: "COL6", 47: "SMIT",
	43: "TRE1", 54: "TRE2", 2028: "COLU", 85: "TLMP", 86: "TLP2",
	34: "CAND", 35: "CBRA", 44: "TBLU", 45: "TGRN", 46: "TRED",
	55: "SMBT", 56: "SMGT", 57: "SMRT", 70: "FCAN", 41: "CEYE",
	42: "FSKU", 49: "GOR1", 63: "GOR1", 50: "GOR2", 59: "GOR2",
	52: "GOR4", 60: "GOR4", 51: "GOR3", 61: "GOR3", 53: "GOR5",
	62: "GOR5", 73: "HDB1", 74: "HDB2", 75: "HDB3", 76: "HDB4",
	77: "HDB5", 78: "HDB6", 25: "POL1", 26: "POL6", 27: "POL4",
	28: "POL2", 29: "POL3", 24: "POL5", 79: "POB1", 80: "POB2",
	81: "BRS1",
	// dead bodies, frame letter baked into the name
	15: "PLAYN", 18: "POSSL", 19: "SPOSL", 20: "TROOM",
	21: "SARGN", 22: "HEADL", 10: "PLAYW", 12: "PLAYW",
}

// statsNames maps monster sprite prefixes to display names for the census.
// The two-digit prefix fixes the display order and is stripped on output.
var statsNames = map[string]string{
	"POSS": "21Zombieman", "SPOS": "22Shotgunner",
	"TROO": "23Imp", "SSWV": "24Wolfenstein SS", "CPOS": "25Chaingunner",
	"SARG": "26Pinky", "SKUL": "28Lost Soul", "HEAD": "29Cacodemon",
	"BOS2": "30Hell Knight", "BOSS": "31Baron of Hell",
	"BSPI": "32Arachnotron", "PAIN": "33Pain Elemental",
	"SKEL": "34Revenant", "FATT": "35Mancubus", "VILE": "36Arch-vile",
	"SPID": "37Spider Mastermind", "CYBR": "38Cyberdemon",
	"BBRN": "39John Romero",
}

const flagMultiplayerOnly = 16

// findSprite scans the container's lump names for one containing both the
// prefix and the angle fragment. When a pair-free name (no second rotation
// in bytes 6-7) exists alongside a paired one, the pair-free name wins.
func findSprite(names map[string]struct{}, prefix, angle string) string {
	found := ""
	for lumpName := range names {
		if strings.Contains(lumpName, prefix) && strings.Contains(lumpName, angle) {
			if found == "" ||
				(lumpName[6:8] == "\x00\x00" && found[6:8] != "\x00\x00") {
				found = lumpName
			}
		}
	}
	return found
}

// parseThings resolves placed objects to sprites. Returns the drawable
// things keyed by draw distance plus the list of sprite lump names to load.
// Skill and deathmatch filtering happens here; so does the monster census.
func parseThings(l *Level, names map[string]struct{}, opts Options, stats MapStats) (map[float64][]*Thing, []string) {
	sprites := make(map[string]struct{})
	thingsList := make(map[float64][]*Thing)

	types := spriteMap
	if opts.Deathmatch {
		// deathmatch: single-player starts vanish, DM starts become players
		types = make(map[int]string, len(spriteMap))
		for k, v := range spriteMap {
			types[k] = v
		}
		delete(types, 1)
		types[11] = "PLAY"
	}

	// monsters cycle through walk frames so a crowd is not a clone stamp
	const spriteFrames = "ABCD"
	spriteFrameCount := 0

	for i := range l.Things {
		thing := &l.Things[i]

		if (thing.Options&flagMultiplayerOnly == flagMultiplayerOnly && !opts.Deathmatch) ||
			thing.Options&opts.Difficulty != opts.Difficulty {
			continue
		}

		thingName, ok := types[thing.Type]
		if !ok {
			continue
		}

		if commonName, counted := statsNames[thingName]; counted {
			// Spectres share the Pinky sprite but count separately
			if thing.Type == 58 {
				commonName = "27Spectre"
			}
			stats.inc(commonName)
		}

		// rotation 1-8, facing the camera after projection
		angle := pmod(14-floorDiv(thing.Angle, 45), 8) + 1

		// static objects have just the A0 sprite; dead bodies carry their
		// frame letter in the name already
		sprite := ""
		if len(thingName) == 4 {
			sprite = findSprite(names, thingName, "A0")
		} else if len(thingName) == 5 {
			sprite = findSprite(names, thingName, "0")
		}
		if sprite == "" {
			if len(thingName) == 4 {
				frame := string(spriteFrames[spriteFrameCount%4])
				sprite = findSprite(names, thingName, frame+strconv.Itoa(angle))
				spriteFrameCount++
			} else if len(thingName) == 5 {
				sprite = findSprite(names, thingName, strconv.Itoa(angle))
			}
		}

		// a name like TROOA2A8 serves two rotations; when ours is the
		// second one the picture is drawn flipped
		if len(sprite) == 8 && sprite[7] == byte('0'+angle) {
			thing.Mirrored = true
		}

		thing.Sprite = sprite

		distance := float64(thing.X)*opts.CoefX + float64(thing.Y)*opts.CoefY
		thingsList[distance] = append(thingsList[distance], thing)
		sprites[sprite] = struct{}{}
	}

	spriteNames := make([]string, 0, len(sprites))
	for s := range sprites {
		spriteNames = append(spriteNames, s)
	}
	return thingsList, spriteNames
}
