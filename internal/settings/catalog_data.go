// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package settings

// serverSettings lists the commonly edited server.ini keys.
// See https://pzwiki.net/wiki/Server_settings
var serverSettings = []Setting{
	// Server info
	{Key: "ServerName", Label: "Server Name", Description: "Internal server name, not shown publicly.", Kind: KindString, Default: "servertest"},
	{Key: "PublicName", Label: "Public Name", Description: "Name shown in the public server browser.", Kind: KindString, Default: "My PZ Server"},
	{Key: "PublicDescription", Label: "Public Description", Description: "Short description shown in the server browser.", Kind: KindString},
	{Key: "Password", Label: "Password", Description: "Password required to join. Empty for none.", Kind: KindString},
	{Key: "MaxPlayers", Label: "Max Players", Description: "Maximum number of connected players.", Kind: KindInteger, Default: "32"},
	{Key: "Public", Label: "Public", Description: "List the server in the public browser.", Kind: KindBoolean, Default: "false"},
	{Key: "Open", Label: "Open", Description: "Allow new players to create accounts.", Kind: KindBoolean, Default: "true"},

	// Network
	{Key: "DefaultPort", Label: "Default Port", Description: "Main UDP port.", Kind: KindPort, Default: "16261"},
	{Key: "UDPPort", Label: "UDP Port", Description: "UDP port for game traffic.", Kind: KindPort, Default: "16262"},
	{Key: "SteamPort1", Label: "Steam Port 1", Description: "Steam query UDP port.", Kind: KindPort, Default: "8766"},
	{Key: "SteamPort2", Label: "Steam Port 2", Description: "Second Steam UDP port.", Kind: KindPort, Default: "8767"},
	{Key: "RCONPort", Label: "RCON Port", Description: "Remote console port.", Kind: KindPort, Default: "27015"},
	{Key: "RCONPassword", Label: "RCON Password", Description: "Remote console password. Empty disables RCON.", Kind: KindString},

	// World and mods
	{Key: "Map", Label: "Map", Description: "Map folders to load, e.g. Muldraugh, KY.", Kind: KindString, Default: "Muldraugh, KY"},
	{Key: "Mods", Label: "Mods", Description: "Mod IDs separated by ;.", Kind: KindList, Separator: ";"},
	{Key: "WorkshopItems", Label: "Workshop Items", Description: "Steam Workshop IDs separated by ;.", Kind: KindList, Separator: ";"},
	{Key: "SaveWorldEveryMinutes", Label: "Save World Every Minutes", Description: "Autosave interval in minutes.", Kind: KindInteger, Default: "0"},
	{Key: "SpawnPoint", Label: "Spawn Point", Description: "Default spawn coordinates x,y,z.", Kind: KindString, Default: "0,0,0"},
	{Key: "PauseEmpty", Label: "Pause Empty", Description: "Pause the game while no players are online.", Kind: KindBoolean, Default: "false"},
	{Key: "ResetID", Label: "Reset ID", Description: "Changing it forces clients to download the world again.", Kind: KindInteger, Default: "0"},

	// PVP and safety
	{Key: "PVP", Label: "PVP", Description: "Enable player versus player combat.", Kind: KindBoolean, Default: "true"},
	{Key: "SafetySystem", Label: "Safety System", Description: "Let each player toggle PVP safety.", Kind: KindBoolean, Default: "true"},
	{Key: "ShowSafety", Label: "Show Safety", Description: "Show safety state on the HUD.", Kind: KindBoolean, Default: "true"},
	{Key: "SafetyToggleTimer", Label: "Safety Toggle Timer", Description: "Seconds to wait when toggling safety.", Kind: KindInteger, Default: "2"},
	{Key: "SafetyCooldownTimer", Label: "Safety Cooldown Timer", Description: "Cooldown between safety toggles.", Kind: KindInteger, Default: "3"},

	// Safehouses
	{Key: "PlayerSafehouse", Label: "Player Safehouse", Description: "Players may claim safehouses.", Kind: KindBoolean, Default: "false"},
	{Key: "AdminSafehouse", Label: "Admin Safehouse", Description: "Only admins may claim safehouses.", Kind: KindBoolean, Default: "false"},
	{Key: "SafehouseAllowTrepass", Label: "Safehouse Allow Trespass", Description: "Allow entering other players' safehouses.", Kind: KindBoolean, Default: "true"},
	{Key: "SafehouseAllowFire", Label: "Safehouse Allow Fire", Description: "Allow fire inside safehouses.", Kind: KindBoolean, Default: "true"},
	{Key: "SafehouseAllowLoot", Label: "Safehouse Allow Loot", Description: "Allow looting other players' safehouses.", Kind: KindBoolean, Default: "true"},
	{Key: "SafehouseAllowRespawn", Label: "Safehouse Allow Respawn", Description: "Allow respawning in a safehouse.", Kind: KindBoolean, Default: "false"},
	{Key: "SafehouseDaySurvivedToClaim", Label: "Days Survived To Claim", Description: "Days survived before a safehouse can be claimed.", Kind: KindInteger, Default: "0"},
	{Key: "SafeHouseRemovalTime", Label: "Safe House Removal Time", Description: "Inactivity before a safehouse is removed.", Kind: KindInteger, Default: "144"},

	// Loot
	{Key: "HoursForLootRespawn", Label: "Hours For Loot Respawn", Description: "In-game hours before loot respawns. 0 disables.", Kind: KindInteger, Default: "0"},
	{Key: "MaxItemsForLootRespawn", Label: "Max Items For Loot Respawn", Description: "Containers holding more items do not respawn loot.", Kind: KindInteger, Default: "4"},
	{Key: "ConstructionPreventsLootRespawn", Label: "Construction Prevents Loot Respawn", Description: "Player buildings stop nearby loot respawn.", Kind: KindBoolean, Default: "true"},

	// Fire
	{Key: "NoFire", Label: "No Fire", Description: "Disable fire entirely.", Kind: KindBoolean, Default: "false"},
	{Key: "NoFireSpread", Label: "No Fire Spread", Description: "Stop fire from spreading.", Kind: KindBoolean, Default: "false"},

	// Voice
	{Key: "VoiceEnable", Label: "Voice Enable", Description: "Enable voice chat.", Kind: KindBoolean, Default: "true"},
	{Key: "VoiceMinDistance", Label: "Voice Min Distance", Description: "Minimum voice distance in tiles.", Kind: KindInteger, Default: "10"},
	{Key: "VoiceMaxDistance", Label: "Voice Max Distance", Description: "Maximum voice distance in tiles.", Kind: KindInteger, Default: "100"},
	{Key: "Voice3D", Label: "Voice 3D", Description: "Positional voice audio.", Kind: KindBoolean, Default: "true"},

	// Players
	{Key: "SleepAllowed", Label: "Sleep Allowed", Description: "Allow sleeping on the server.", Kind: KindBoolean, Default: "false"},
	{Key: "SleepNeeded", Label: "Sleep Needed", Description: "Players must sleep. Requires SleepAllowed.", Kind: KindBoolean, Default: "false"},
	{Key: "DisplayUserName", Label: "Display User Name", Description: "Show player names above heads.", Kind: KindBoolean, Default: "true"},
	{Key: "ShowFirstAndLastName", Label: "Show First And Last Name", Description: "Show character names instead of usernames.", Kind: KindBoolean, Default: "false"},
	{Key: "SpawnItems", Label: "Spawn Items", Description: "Items given to new players, separated by ,.", Kind: KindList, Separator: ","},
	{Key: "AnnounceDeath", Label: "Announce Death", Description: "Announce player deaths.", Kind: KindBoolean, Default: "false"},

	// Chat
	{Key: "GlobalChat", Label: "Global Chat", Description: "Enable global chat.", Kind: KindBoolean, Default: "true"},
	{Key: "ChatStreams", Label: "Chat Streams", Description: "Enabled chat channels (s local, r radio, a admin, w whisper, f faction, all global).", Kind: KindString, Default: "s,r,a,w,y,sh,f,all"},
	{Key: "ServerWelcomeMessage", Label: "Server Welcome Message", Description: "Message shown on join.", Kind: KindString, Default: "Welcome to Project Zomboid Multiplayer!"},

	// Misc
	{Key: "AllowDestructionBySledgehammer", Label: "Allow Destruction By Sledgehammer", Description: "Allow sledgehammer destruction.", Kind: KindBoolean, Default: "true"},
	{Key: "AllowNonAsciiUsername", Label: "Allow Non-ASCII Username", Description: "Allow special characters in usernames.", Kind: KindBoolean, Default: "false"},
}
