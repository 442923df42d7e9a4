package slack

var ToStaffCandidates = toStaffCandidates
